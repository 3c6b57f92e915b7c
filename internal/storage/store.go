package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/climdyn/limfit/internal/lim"
)

// Dataset is the serialized anomaly-series interchange document: shape,
// variable identifiers, and row-major values round-trip exactly.
type Dataset struct {
	IDs    []string  `json:"ids"`
	NVar   int       `json:"nvar"`
	NTime  int       `json:"ntime"`
	Values []float64 `json:"values"`
}

// SaveDataset writes a series to a JSON dataset file.
func SaveDataset(path string, s *lim.Series) error {
	nVar, nTime := s.Data.Dims()
	ds := Dataset{
		IDs:    s.IDs,
		NVar:   nVar,
		NTime:  nTime,
		Values: make([]float64, 0, nVar*nTime),
	}
	for i := 0; i < nVar; i++ {
		for t := 0; t < nTime; t++ {
			ds.Values = append(ds.Values, s.Data.At(i, t))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(ds)
}

// LoadDataset reads a JSON dataset file back into a series, checking
// that shape and identifier count agree.
func LoadDataset(path string) (*lim.Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	if ds.NVar <= 0 || ds.NTime <= 0 {
		return nil, fmt.Errorf("storage: dataset %s has empty shape %dx%d", path, ds.NVar, ds.NTime)
	}
	if len(ds.Values) != ds.NVar*ds.NTime {
		return nil, fmt.Errorf("storage: dataset %s has %d values for shape %dx%d", path, len(ds.Values), ds.NVar, ds.NTime)
	}
	if len(ds.IDs) != ds.NVar {
		return nil, fmt.Errorf("storage: dataset %s has %d ids for %d variables", path, len(ds.IDs), ds.NVar)
	}
	return lim.NewSeries(ds.IDs, mat.NewDense(ds.NVar, ds.NTime, ds.Values))
}

// Store persists fitted runs, one directory per run with a metadata
// document and the estimated matrices as CSV.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one fitted model.
type RunMetadata struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Timestamp time.Time   `json:"timestamp"`
	Tau0      int         `json:"tau0"`
	IDs       []string    `json:"variable_ids"`
	DecayT    []float64   `json:"decay_times"`
	Periods   []float64   `json:"periods"`
	Report    *lim.Report `json:"report"`
}

// SaveRun persists a fitted model under a fresh run id.
func (s *Store) SaveRun(name string, m *lim.Model) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: time.Now(),
		Tau0:      m.Tau0,
		IDs:       m.IDs,
		Report:    m.Report,
	}
	for _, mode := range m.Modes {
		// JSON has no infinity; neutral modes are recorded with zero
		// decay time.
		meta.DecayT = append(meta.DecayT, finiteOrZero(mode.DecayTime))
		meta.Periods = append(meta.Periods, finiteOrZero(mode.Period))
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	matrices := map[string]mat.Matrix{
		"L": m.Operator.L,
		"G": m.Operator.G,
		"Q": m.Q,
	}
	for fname, matrix := range matrices {
		if err := writeMatrixCSV(filepath.Join(runDir, fname+".csv"), matrix); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadMatrix reads back one of the persisted matrices ("L", "G", "Q").
func (s *Store) LoadMatrix(runID, name string) (*mat.Dense, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: matrix %s of run %s is empty", name, runID)
	}

	r, c := len(records), len(records[0])
	out := mat.NewDense(r, c, nil)
	for i, record := range records {
		if len(record) != c {
			return nil, fmt.Errorf("storage: matrix %s of run %s is ragged", name, runID)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, err
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

func writeMatrixCSV(path string, a mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	r, c := a.Dims()
	row := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(a.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
