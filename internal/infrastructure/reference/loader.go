package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Files nombres de los archivos de referencia relativos a Dir.
type Files struct {
	Dir        string
	IgnoreFile string // ignore_00.json
	BranchFile string // unimed_map.json
	HMFile     string // reference_list/referencial_hm_list202502.json
	SADTFile   string // reference_list/referencial_sadt_list202502.json
}

// DefaultFiles nombres usados cuando la configuración no define otros.
func DefaultFiles(dir string) Files {
	return Files{
		Dir:        dir,
		IgnoreFile: "ignore_00.json",
		BranchFile: "unimed_map.json",
		HMFile:     filepath.Join("reference_list", "referencial_hm_list202502.json"),
		SADTFile:   filepath.Join("reference_list", "referencial_sadt_list202502.json"),
	}
}

// flexString acepta string o número en el JSON (los códigos vienen de ambas formas).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type ignoreRecord struct {
	Code flexString `json:"Código" validate:"required"`
}

type procedureRecord struct {
	Code    flexString `json:"COD_PROCEDIMENTO" validate:"required"`
	Covered flexString `json:"COBERTO_UNIMED_CG"`
}

var validate = validator.New()

// Loader lee los archivos de referencia. Un archivo ausente o inválido se registra y su lista
// queda "no cargada"; nunca detiene la corrida.
type Loader struct {
	files Files
	log   zerolog.Logger
}

// NewLoader crea el loader.
func NewLoader(files Files, log zerolog.Logger) *Loader {
	return &Loader{files: files, log: log}
}

// Load construye el Dataset.
func (l *Loader) Load() *Dataset {
	var data Data
	var err error

	if data.Ignore, err = l.loadIgnore(); err != nil {
		l.log.Error().Err(err).Str("archivo", l.files.IgnoreFile).Msg("lista de códigos HM tabela 00 no cargada")
	}
	if data.Branches, err = l.loadBranches(); err != nil {
		l.log.Error().Err(err).Str("archivo", l.files.BranchFile).Msg("mapa de Unimeds no cargado")
	}
	if data.HM, err = l.loadProcedures(l.files.HMFile); err != nil {
		l.log.Error().Err(err).Str("archivo", l.files.HMFile).Msg("lista referencial HM no cargada")
	}
	if data.SADT, err = l.loadProcedures(l.files.SADTFile); err != nil {
		l.log.Error().Err(err).Str("archivo", l.files.SADTFile).Msg("lista referencial SADT no cargada")
	}

	ds := &Dataset{hm: data.HM, sadt: data.SADT, ignore: data.Ignore, branches: data.Branches}
	hm, sadt, ignore, branches := ds.Counts()
	l.log.Info().
		Int("hm", hm).
		Int("sadt", sadt).
		Int("ignorar_t00", ignore).
		Int("unimeds", branches).
		Msg("datos de referencia cargados")
	return ds
}

func (l *Loader) read(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("archivo no configurado")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.files.Dir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference: leer %s: %w", path, err)
	}
	return data, nil
}

func (l *Loader) loadIgnore() (map[string]bool, error) {
	data, err := l.read(l.files.IgnoreFile)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reference: %s debe ser una lista de objetos: %w", l.files.IgnoreFile, err)
	}
	out := make(map[string]bool, len(raw))
	for i, item := range raw {
		var rec ignoreRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			l.log.Warn().Int("item", i).Err(err).Msg("registro ignorado en lista tabela 00")
			continue
		}
		if err := validate.Struct(rec); err != nil {
			l.log.Warn().Int("item", i).Err(err).Msg("registro sin \"Código\" en lista tabela 00")
			continue
		}
		out[string(rec.Code)] = true
	}
	return out, nil
}

func (l *Loader) loadBranches() (map[string]string, error) {
	data, err := l.read(l.files.BranchFile)
	if err != nil {
		return nil, err
	}
	var raw map[string]flexString
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reference: %s debe ser un objeto código→nombre: %w", l.files.BranchFile, err)
	}
	out := make(map[string]string, len(raw))
	for code, name := range raw {
		out[strings.TrimSpace(code)] = string(name)
	}
	return out, nil
}

func (l *Loader) loadProcedures(name string) (map[string]Procedure, error) {
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reference: %s debe ser una lista de procedimientos: %w", name, err)
	}
	out := make(map[string]Procedure, len(raw))
	for i, item := range raw {
		var rec procedureRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			l.log.Warn().Str("archivo", name).Int("item", i).Err(err).Msg("procedimiento ilegible")
			continue
		}
		if err := validate.Struct(rec); err != nil {
			l.log.Warn().Str("archivo", name).Int("item", i).Err(err).Msg("procedimiento sin COD_PROCEDIMENTO")
			continue
		}
		code := string(rec.Code)
		out[code] = Procedure{Code: code, Covered: isCovered(string(rec.Covered))}
	}
	return out, nil
}
