// Package ptuxml implementa el modelo de documento PTU A500 sobre beevik/etree, las reglas de
// corrección, el clasificador de guías (antchfx/xmlquery) y el hash de contenido del árbol.
package ptuxml

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// Declaration declaración XML con la que se graba todo A500.
const Declaration = `version="1.0" encoding="ISO-8859-1"`

const indentSpaces = 2

var nsFilter = "[namespace-uri()='" + ptu.Namespace + "']"

// Document árbol mutable de un A500. Las consultas quedan limitadas al namespace PTU.
type Document struct {
	doc *etree.Document
	// Recovered true cuando el XML venía mal formado y se conservó el árbol parcial.
	Recovered bool
}

// Parse lee el documento en modo permisivo. Un XML mal formado con raíz se conserva (Recovered);
// sin raíz es error.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("ptuxml: documento vacío")
	}
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charsetReader,
		Permissive:    true,
	}
	err := doc.ReadFromBytes(data)
	if doc.Root() == nil {
		if err == nil {
			err = errors.New("sin elemento raíz")
		}
		return nil, fmt.Errorf("ptuxml: parsear documento: %w", err)
	}
	return &Document{doc: doc, Recovered: err != nil}, nil
}

// ParseFile lee y parsea un archivo .051.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ptuxml: leer %s: %w", path, err)
	}
	return Parse(data)
}

// Root elemento raíz (ptuA500).
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// ─── Consultas ───────────────────────────────────────────────────────────────

var pathCache sync.Map // string -> etree.Path

// compile traduce una ruta con prefijo ptu: a una ruta etree filtrada por namespace-uri,
// de modo que coincida con cualquier prefijo del documento o con el namespace por defecto.
func compile(path string) etree.Path {
	if p, ok := pathCache.Load(path); ok {
		return p.(etree.Path)
	}
	lead := ""
	rest := path
	if strings.HasPrefix(rest, "/") && !strings.HasPrefix(rest, "//") {
		lead, rest = "/", rest[1:]
	}
	parts := strings.Split(rest, "/")
	for i, part := range parts {
		if local, ok := strings.CutPrefix(part, ptu.Prefix+":"); ok {
			parts[i] = local + nsFilter
		}
	}
	p := etree.MustCompilePath(lead + strings.Join(parts, "/"))
	pathCache.Store(path, p)
	return p
}

// FindAll elementos que coinciden con path desde ctx (la raíz del documento si ctx es nil).
func (d *Document) FindAll(ctx *etree.Element, path string) []*etree.Element {
	if ctx == nil {
		ctx = d.Root()
	}
	return ctx.FindElementsPath(compile(path))
}

// FindOne primer elemento que coincide con path, o nil.
func (d *Document) FindOne(ctx *etree.Element, path string) *etree.Element {
	if ctx == nil {
		ctx = d.Root()
	}
	return ctx.FindElementPath(compile(path))
}

// Text texto directo del elemento ("" para nil).
func Text(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.Text()
}

// SetText reemplaza el texto directo del elemento.
func SetText(e *etree.Element, v string) {
	e.SetText(v)
}

// ─── Creación y eliminación ──────────────────────────────────────────────────

// prefixFor prefijo ligado al namespace PTU visible desde parent.
func (d *Document) prefixFor(parent *etree.Element) string {
	if parent.NamespaceURI() == ptu.Namespace {
		return parent.Space
	}
	for _, a := range d.Root().Attr {
		if a.Space == "xmlns" && a.Value == ptu.Namespace {
			return a.Key
		}
	}
	return ptu.Prefix
}

func (d *Document) newElement(parent *etree.Element, local string) *etree.Element {
	tag := local
	if prefix := d.prefixFor(parent); prefix != "" {
		tag = prefix + ":" + local
	}
	return etree.NewElement(tag)
}

// CreateChild agrega un hijo al final de parent.
func (d *Document) CreateChild(parent *etree.Element, local string) *etree.Element {
	e := d.newElement(parent, local)
	parent.AddChild(e)
	return e
}

// CreateBefore inserta un hijo inmediatamente antes de sibling; si sibling no es hijo de parent, lo agrega al final.
func (d *Document) CreateBefore(parent *etree.Element, local string, sibling *etree.Element) *etree.Element {
	if sibling == nil || sibling.Parent() != parent {
		return d.CreateChild(parent, local)
	}
	e := d.newElement(parent, local)
	parent.InsertChildAt(sibling.Index(), e)
	return e
}

// InsertFirst inserta un hijo como primer elemento de parent.
func (d *Document) InsertFirst(parent *etree.Element, local string) *etree.Element {
	e := d.newElement(parent, local)
	parent.InsertChildAt(0, e)
	return e
}

// Remove desprende el elemento de su padre.
func Remove(e *etree.Element) {
	if e == nil || e.Parent() == nil {
		return
	}
	e.Parent().RemoveChild(e)
}

// ─── Serialización ───────────────────────────────────────────────────────────

// Bytes serializa en ISO-8859-1 con declaración e indentación de dos espacios.
// Los caracteres fuera de Latin-1 se emiten como referencias numéricas.
func (d *Document) Bytes() ([]byte, error) {
	d.setDeclaration()
	settings := etree.NewIndentSettings()
	settings.Spaces = indentSpaces
	settings.PreserveLeafWhitespace = true
	d.doc.IndentWithSettings(settings)
	d.doc.WriteSettings = etree.WriteSettings{CanonicalText: true}

	utf8Text, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ptuxml: serializar: %w", err)
	}
	enc := encoding.HTMLEscapeUnsupported(charmap.ISO8859_1.NewEncoder())
	out, err := enc.Bytes(utf8Text)
	if err != nil {
		return nil, fmt.Errorf("ptuxml: codificar ISO-8859-1: %w", err)
	}
	return out, nil
}

// setDeclaration deja una única declaración ISO-8859-1 al inicio del documento.
func (d *Document) setDeclaration() {
	for _, t := range append([]etree.Token(nil), d.doc.Child...) {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			d.doc.RemoveChild(pi)
		}
	}
	d.doc.InsertChildAt(0, etree.NewProcInst("xml", Declaration))
}

// WriteFile graba Bytes() en path reemplazando el archivo de forma atómica.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ptu-*.tmp")
	if err != nil {
		return fmt.Errorf("ptuxml: archivo temporal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ptuxml: escribir %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ptuxml: cerrar %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ptuxml: reemplazar %s: %w", path, err)
	}
	return nil
}
