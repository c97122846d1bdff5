package ptu

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/ptu-audit/internal/domain"
)

// Hash de contenido del A500 tal como lo verifica el validador legado (Progress ABL):
//  1. documento serializado en ISO-8859-1
//  2. sin el elemento hash previo
//  3. sin espacios entre etiquetas
//  4. sin etiquetas (solo el texto concatenado), recortado
//  5. & < > escapados de nuevo (el & primero)
//  6. MD5 sobre los bytes ISO-8859-1, hex en minúsculas

// legacySpace conjunto de espacios reconocido por el validador dentro del rango Latin-1.
const legacySpace = "\t\n\v\f\r\x1c\x1d\x1e\x1f \u0085\u00a0"

var (
	hashElementRe   = regexp.MustCompile(`(?is)<(?:[A-Za-z_][\w.\-]*:)?hash>.*?</(?:[A-Za-z_][\w.\-]*:)?hash>`)
	interTagSpaceRe = regexp.MustCompile(`>[\t\n\v\f\r \x{1c}-\x{1f}\x{85}\x{a0}]+<`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
	metaEscaper     = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// ContentDigest calcula el hash de contenido a partir del documento ya serializado en ISO-8859-1.
func ContentDigest(serialized []byte) (string, error) {
	if len(serialized) == 0 {
		return "", fmt.Errorf("ptu: documento vacío: %w", domain.ErrDigestFailed)
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(serialized)
	if err != nil {
		return "", fmt.Errorf("ptu: decodificar ISO-8859-1: %w", domain.ErrDigestFailed)
	}
	content := CanonicalContent(string(text))
	payload, err := charmap.ISO8859_1.NewEncoder().String(content)
	if err != nil {
		return "", fmt.Errorf("ptu: codificar ISO-8859-1: %w", domain.ErrDigestFailed)
	}
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalContent aplica los pasos 2 a 5 sobre el texto del documento.
func CanonicalContent(xmlText string) string {
	s := hashElementRe.ReplaceAllString(xmlText, "")
	s = interTagSpaceRe.ReplaceAllString(s, "><")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.Trim(s, legacySpace)
	return metaEscaper.Replace(s)
}
