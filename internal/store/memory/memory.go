// Package memory implements store.Store in process memory. It backs tests
// and the serve command when no database URL is configured.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/idgen"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

type printerKey struct{ name, host string }

type profileItemKey struct{ profile, alphaCode string }

type consentKey struct{ version, appLabel, modelName string }

type state struct {
	attributes        map[string]model.Attribute
	aliquotTypes      map[string]model.AliquotType // by name
	panels            map[string]model.Panel
	panelAliquotTypes map[string][]string // panel name -> alpha codes
	requisitionPanels map[string]model.RequisitionPanel
	profiles          map[string]model.Profile
	profileItems      map[profileItemKey]model.ProfileItem
	destinations      map[string]model.Destination
	labelPrinters     map[printerKey]model.LabelPrinter
	labelClients      map[string]model.LabelClient
	zplTemplates      map[string]model.ZplTemplate
	holidays          map[string]model.Holiday
	consentTypes      map[consentKey]model.ConsentType
}

func newState() state {
	return state{
		attributes:        make(map[string]model.Attribute),
		aliquotTypes:      make(map[string]model.AliquotType),
		panels:            make(map[string]model.Panel),
		panelAliquotTypes: make(map[string][]string),
		requisitionPanels: make(map[string]model.RequisitionPanel),
		profiles:          make(map[string]model.Profile),
		profileItems:      make(map[profileItemKey]model.ProfileItem),
		destinations:      make(map[string]model.Destination),
		labelPrinters:     make(map[printerKey]model.LabelPrinter),
		labelClients:      make(map[string]model.LabelClient),
		zplTemplates:      make(map[string]model.ZplTemplate),
		holidays:          make(map[string]model.Holiday),
		consentTypes:      make(map[consentKey]model.ConsentType),
	}
}

func (st state) clone() state {
	c := state{
		attributes:        maps.Clone(st.attributes),
		aliquotTypes:      maps.Clone(st.aliquotTypes),
		panels:            maps.Clone(st.panels),
		panelAliquotTypes: make(map[string][]string, len(st.panelAliquotTypes)),
		requisitionPanels: maps.Clone(st.requisitionPanels),
		profiles:          maps.Clone(st.profiles),
		profileItems:      maps.Clone(st.profileItems),
		destinations:      maps.Clone(st.destinations),
		labelPrinters:     maps.Clone(st.labelPrinters),
		labelClients:      maps.Clone(st.labelClients),
		zplTemplates:      maps.Clone(st.zplTemplates),
		holidays:          maps.Clone(st.holidays),
		consentTypes:      maps.Clone(st.consentTypes),
	}
	for k, v := range st.panelAliquotTypes {
		c.panelAliquotTypes[k] = slices.Clone(v)
	}
	return c
}

// Store is an in-memory store.Store. It is safe for concurrent use;
// transactions are serialized and roll back on error.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   state
	now  func() time.Time
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// assignID returns id, or the existing row's ID, or a fresh one.
func assignID(id, existing, prefix string) (string, error) {
	if existing != "" {
		return existing, nil
	}
	if id != "" {
		return id, nil
	}
	return idgen.GenerateWithPrefix(prefix)
}

func (s *Store) GetAttribute(_ context.Context, name string) (*model.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attributes[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (s *Store) ListAttributes(_ context.Context, category string) ([]*model.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Attribute
	for _, a := range s.st.attributes {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpsertAttribute(_ context.Context, attr *model.Attribute) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.attributes[attr.Name]
	id, err := assignID(attr.ID, existing.ID, idgen.PrefixAttribute)
	if err != nil {
		return false, err
	}
	attr.ID = id
	now := s.now()
	attr.UpdatedAt = now
	if found {
		attr.CreatedAt = existing.CreatedAt
		if attr.Comment == "" {
			attr.Comment = existing.Comment
		}
	} else {
		attr.CreatedAt = now
	}
	s.st.attributes[attr.Name] = *attr
	return !found, nil
}

func (s *Store) DeleteAttribute(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.attributes[name]; !ok {
		return sql.ErrNoRows
	}
	delete(s.st.attributes, name)
	return nil
}

func (s *Store) GetAliquotType(_ context.Context, alphaCode string) (*model.AliquotType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, at := range s.st.aliquotTypes {
		if at.AlphaCode == alphaCode {
			return &at, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) UpsertAliquotType(_ context.Context, at *model.AliquotType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.aliquotTypes[at.Name]
	id, err := assignID(at.ID, existing.ID, idgen.PrefixAliquotType)
	if err != nil {
		return false, err
	}
	at.ID = id
	s.st.aliquotTypes[at.Name] = *at
	return !found, nil
}

func (s *Store) UpsertPanel(_ context.Context, p *model.Panel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.panels[p.Name]
	id, err := assignID(p.ID, existing.ID, idgen.PrefixPanel)
	if err != nil {
		return false, err
	}
	p.ID = id
	s.st.panels[p.Name] = *p
	return !found, nil
}

func (s *Store) AddPanelAliquotType(_ context.Context, panelName, alphaCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.st.panelAliquotTypes[panelName]
	if !slices.Contains(codes, alphaCode) {
		s.st.panelAliquotTypes[panelName] = append(codes, alphaCode)
	}
	return nil
}

func (s *Store) ClearPanelAliquotTypes(_ context.Context, panelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.panelAliquotTypes, panelName)
	return nil
}

// PanelAliquotTypes returns the alpha codes linked to a panel in link order.
func (s *Store) PanelAliquotTypes(panelName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.panelAliquotTypes[panelName])
}

func (s *Store) UpsertRequisitionPanel(_ context.Context, rp *model.RequisitionPanel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.requisitionPanels[rp.Name]
	id, err := assignID(rp.ID, existing.ID, idgen.PrefixRequisitionPanel)
	if err != nil {
		return false, err
	}
	rp.ID = id
	s.st.requisitionPanels[rp.Name] = *rp
	return !found, nil
}

func (s *Store) GetProfile(_ context.Context, name string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.profiles[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p *model.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.profiles[p.Name]
	id, err := assignID(p.ID, existing.ID, idgen.PrefixProfile)
	if err != nil {
		return false, err
	}
	p.ID = id
	s.st.profiles[p.Name] = *p
	return !found, nil
}

func (s *Store) UpsertProfileItem(_ context.Context, pi *model.ProfileItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := profileItemKey{pi.ProfileName, pi.AlphaCode}
	existing, found := s.st.profileItems[key]
	id, err := assignID(pi.ID, existing.ID, idgen.PrefixProfileItem)
	if err != nil {
		return false, err
	}
	pi.ID = id
	s.st.profileItems[key] = *pi
	return !found, nil
}

func (s *Store) UpsertDestination(_ context.Context, d *model.Destination) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.destinations[d.Code]
	id, err := assignID(d.ID, existing.ID, idgen.PrefixDestination)
	if err != nil {
		return false, err
	}
	d.ID = id
	s.st.destinations[d.Code] = *d
	return !found, nil
}

func (s *Store) GetLabelPrinter(_ context.Context, printerName, serverHostname string) (*model.LabelPrinter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lp, ok := s.st.labelPrinters[printerKey{printerName, serverHostname}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &lp, nil
}

func (s *Store) UpsertLabelPrinter(_ context.Context, lp *model.LabelPrinter) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := printerKey{lp.CupsPrinterName, lp.CupsServerHostname}
	existing, found := s.st.labelPrinters[key]
	id, err := assignID(lp.ID, existing.ID, idgen.PrefixLabelPrinter)
	if err != nil {
		return false, err
	}
	lp.ID = id
	s.st.labelPrinters[key] = *lp
	return !found, nil
}

func (s *Store) UpsertLabelClient(_ context.Context, c *model.LabelClient) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.labelClients[c.Hostname]
	id, err := assignID(c.ID, existing.ID, idgen.PrefixLabelClient)
	if err != nil {
		return false, err
	}
	c.ID = id
	s.st.labelClients[c.Hostname] = *c
	return !found, nil
}

func (s *Store) UpsertZplTemplate(_ context.Context, zt *model.ZplTemplate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.zplTemplates[zt.Name]
	id, err := assignID(zt.ID, existing.ID, idgen.PrefixZplTemplate)
	if err != nil {
		return false, err
	}
	zt.ID = id
	s.st.zplTemplates[zt.Name] = *zt
	return !found, nil
}

func (s *Store) UpsertHoliday(_ context.Context, h *model.Holiday) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.st.holidays[h.Name]
	id, err := assignID(h.ID, existing.ID, idgen.PrefixHoliday)
	if err != nil {
		return false, err
	}
	h.ID = id
	s.st.holidays[h.Name] = *h
	return !found, nil
}

func (s *Store) ListHolidays(_ context.Context) ([]*model.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Holiday
	for _, h := range s.st.holidays {
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpsertConsentType(_ context.Context, c *model.ConsentType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := consentKey{c.Version, c.AppLabel, c.ModelName}
	existing, found := s.st.consentTypes[key]
	id, err := assignID(c.ID, existing.ID, idgen.PrefixConsentType)
	if err != nil {
		return false, err
	}
	c.ID = id
	s.st.consentTypes[key] = *c
	return !found, nil
}

// Counts returns the number of rows per table, keyed by table name.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := 0
	for _, codes := range s.st.panelAliquotTypes {
		links += len(codes)
	}
	return map[string]int{
		"global_configurations": len(s.st.attributes),
		"aliquot_types":         len(s.st.aliquotTypes),
		"panels":                len(s.st.panels),
		"panel_aliquot_types":   links,
		"requisition_panels":    len(s.st.requisitionPanels),
		"profiles":              len(s.st.profiles),
		"profile_items":         len(s.st.profileItems),
		"destinations":          len(s.st.destinations),
		"label_printers":        len(s.st.labelPrinters),
		"label_clients":         len(s.st.labelClients),
		"zpl_templates":         len(s.st.zplTemplates),
		"holidays":              len(s.st.holidays),
		"consent_types":         len(s.st.consentTypes),
	}
}

// RunInTransaction runs fn with exclusive write access. If fn returns an
// error every change it made is discarded.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(txStore{s}); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// txStore is the store handed to a transaction function.
type txStore struct {
	*Store
}

// RunInTransaction reuses the enclosing transaction (no nesting).
func (t txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}
