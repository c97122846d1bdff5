package ptuxml

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"regexp"

	"github.com/ucarion/c14n"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// Digest hash de contenido del árbol (serialización ISO-8859-1 → ptu.ContentDigest).
func Digest(doc *Document) (string, error) {
	if doc == nil || doc.Root() == nil {
		return "", fmt.Errorf("ptuxml: documento nulo: %w", domain.ErrDigestFailed)
	}
	data, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("ptuxml: %v: %w", err, domain.ErrDigestFailed)
	}
	return ptu.ContentDigest(data)
}

// SetHash reemplaza el texto de /ptuA500/hash o inserta el elemento como primer hijo de la raíz.
// Devuelve true si el elemento fue creado.
func SetHash(doc *Document, value string) (created bool, err error) {
	root := doc.Root()
	if !isPTU(root, ptu.RootTag) {
		return false, fmt.Errorf("ptuxml: raíz <%s> no encontrada", ptu.RootTag)
	}
	if h := doc.FindOne(root, "ptu:"+ptu.HashTag); h != nil {
		SetText(h, value)
		return false, nil
	}
	h := doc.InsertFirst(root, ptu.HashTag)
	SetText(h, value)
	return true, nil
}

// CurrentHash texto actual de /ptuA500/hash; "" si el elemento no existe.
func CurrentHash(doc *Document) string {
	root := doc.Root()
	if root == nil {
		return ""
	}
	return Text(doc.FindOne(root, "ptu:"+ptu.HashTag))
}

var (
	declarationRe = regexp.MustCompile(`^\s*<\?xml\s[^>]*\?>`)
	encodingRe    = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)
)

// Fingerprint SHA-256 (hex) del XML canónico (C14N). Identifica facturas repetidas entre corridas.
// La declaración no participa; su encoding sólo decide cómo decodificar el cuerpo.
func Fingerprint(data []byte) (string, error) {
	body, charset := data, ""
	if decl := declarationRe.Find(data); decl != nil {
		if m := encodingRe.FindSubmatch(decl); m != nil {
			charset = string(m[1])
		}
		body = data[len(decl):]
	}
	r, err := charsetReader(charset, bytes.NewReader(bytes.TrimSpace(body)))
	if err != nil {
		return "", err
	}
	dec := xml.NewDecoder(r)
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("ptuxml: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
