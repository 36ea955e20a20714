package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
	"github.com/ironsheep/spore-measure-mcp/internal/store"
)

// Calibration is a named pixels-per-micrometre ratio.
type Calibration struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// String renders the calibration as shown in the calibration picker.
func (c Calibration) String() string {
	return fmt.Sprintf("%s (%spx/µm)", c.Name, strconv.FormatFloat(c.Value, 'f', -1, 64))
}

// Validate checks the name and ratio.
func (c Calibration) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if !(c.Value > 0) || math.IsInf(c.Value, 0) {
		return ErrInvalidValue
	}
	return nil
}

// RoundRatio rounds a ratio to three decimal places.
func RoundRatio(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// FromReference builds a calibration from a reference line and the true
// length it spans, in micrometres.
func FromReference(name string, ref geometry.Line, trueLength float64) (Calibration, error) {
	if name == "" {
		return Calibration{}, ErrEmptyName
	}
	if !(trueLength > 0) || math.IsInf(trueLength, 0) {
		return Calibration{}, ErrInvalidLength
	}
	c := Calibration{Name: name, Value: RoundRatio(ref.Length() / trueLength)}
	if err := c.Validate(); err != nil {
		return Calibration{}, fmt.Errorf("reference line of %.3fpx over %gµm: %w", ref.Length(), trueLength, err)
	}
	return c, nil
}

// Registry is the ordered set of calibrations plus the active name.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	st     store.Store
	items  []Calibration
	active string
}

// NewRegistry loads the registry from st. A read failure is returned as a
// *StorageError together with a usable, empty registry.
func NewRegistry(st store.Store) (*Registry, error) {
	r := &Registry{st: st}

	data, err := st.Get(store.KeyCalibrations)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return r, &StorageError{Op: "load", Err: err}
	default:
		if err := json.Unmarshal(data, &r.items); err != nil {
			r.items = nil
			return r, &StorageError{Op: "load", Err: err}
		}
	}

	name, err := st.Get(store.KeyActiveCalibration)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return r, &StorageError{Op: "load", Err: err}
	default:
		if r.indexOf(string(name)) >= 0 {
			r.active = string(name)
		}
	}
	return r, nil
}

// List returns a copy of the calibrations in insertion order.
func (r *Registry) List() []Calibration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Calibration(nil), r.items...)
}

// Get looks up a calibration by name.
func (r *Registry) Get(name string) (Calibration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(name); i >= 0 {
		return r.items[i], true
	}
	return Calibration{}, false
}

// Active returns the active calibration, if any.
func (r *Registry) Active() (Calibration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(r.active); r.active != "" && i >= 0 {
		return r.items[i], true
	}
	return Calibration{}, false
}

// ActiveRatio returns the active pixels-per-micrometre ratio, or 1 when no
// calibration is active.
func (r *Registry) ActiveRatio() float64 {
	if c, ok := r.Active(); ok {
		return c.Value
	}
	return 1.0
}

// Add inserts c. An existing name is rejected with *DuplicateNameError
// unless overwrite is set, in which case the old entry is removed first.
func (r *Registry) Add(c Calibration, overwrite bool) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(c.Name); i >= 0 {
		if !overwrite {
			return &DuplicateNameError{Name: c.Name}
		}
		r.items = append(r.items[:i], r.items[i+1:]...)
	}
	r.items = append(r.items, c)
	return r.saveItems()
}

// Remove deletes a calibration. Removing the active one clears the active
// name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	if err := r.saveItems(); err != nil {
		return err
	}
	if r.active == name {
		r.active = ""
		return r.saveActive()
	}
	return nil
}

// SetActive selects the calibration used for unit conversion. An empty
// name selects none.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" && r.indexOf(name) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r.active = name
	return r.saveActive()
}

// Import replaces the whole collection with the JSON array read from src.
// On any validation failure the registry is left untouched. The active
// name is kept only if it still exists.
func (r *Registry) Import(src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return &MalformedImportError{Reason: "read failed", Err: err}
	}

	var records []struct {
		Name  *string  `json:"name"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return &MalformedImportError{Reason: "expected a JSON array of {name, value}", Err: err}
	}
	if records == nil {
		return &MalformedImportError{Reason: "expected a JSON array of {name, value}"}
	}

	items := make([]Calibration, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if rec.Name == nil || rec.Value == nil {
			return &MalformedImportError{Reason: fmt.Sprintf("record %d: missing name or value", i)}
		}
		c := Calibration{Name: *rec.Name, Value: *rec.Value}
		if err := c.Validate(); err != nil {
			return &MalformedImportError{Reason: fmt.Sprintf("record %d", i), Err: err}
		}
		if seen[c.Name] {
			return &MalformedImportError{Reason: fmt.Sprintf("record %d: duplicate name %q", i, c.Name)}
		}
		seen[c.Name] = true
		items = append(items, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = items
	if err := r.saveItems(); err != nil {
		return err
	}
	if r.active != "" && !seen[r.active] {
		r.active = ""
		return r.saveActive()
	}
	return nil
}

// Export writes the collection as an indented JSON array.
func (r *Registry) Export(w io.Writer) error {
	items := r.List()
	if items == nil {
		items = []Calibration{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Reset removes every calibration and the active name, in memory and in
// the store.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.active = ""
	if err := r.st.Delete(store.KeyCalibrations); err != nil {
		return &StorageError{Op: "reset", Err: err}
	}
	if err := r.st.Delete(store.KeyActiveCalibration); err != nil {
		return &StorageError{Op: "reset", Err: err}
	}
	return nil
}

func (r *Registry) indexOf(name string) int {
	for i, c := range r.items {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// saveItems persists the collection. Caller holds the write lock.
func (r *Registry) saveItems() error {
	items := r.items
	if items == nil {
		items = []Calibration{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := r.st.Put(store.KeyCalibrations, data); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// saveActive persists the active name. Caller holds the write lock.
func (r *Registry) saveActive() error {
	var err error
	if r.active == "" {
		err = r.st.Delete(store.KeyActiveCalibration)
	} else {
		err = r.st.Put(store.KeyActiveCalibration, []byte(r.active))
	}
	if err != nil {
		return &StorageError{Op: "save active", Err: err}
	}
	return nil
}
