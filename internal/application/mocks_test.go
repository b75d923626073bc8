package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// callLog records store calls across mocks in the order they happen.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) reset() { l.calls = nil }

// --- SecretStore ---

type mockSecretStore struct {
	log       *callLog
	data      map[string][]byte
	putErr    error
	putHook   func()
	deleteErr map[string]error
	keysErr   error
}

func (m *mockSecretStore) Put(ctx context.Context, key string, value []byte) error {
	m.log.add("secret.put")
	if m.putHook != nil {
		m.putHook()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockSecretStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, driven.ErrSecretNotFound
	}
	return v, nil
}

func (m *mockSecretStore) Delete(ctx context.Context, key string) error {
	m.log.add("secret.delete %s", key)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	if _, ok := m.data[key]; !ok {
		return driven.ErrSecretNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *mockSecretStore) Keys(_ context.Context) ([]string, error) {
	if m.keysErr != nil {
		return nil, m.keysErr
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// --- GroupStore ---

type mockGroupStore struct {
	log       *callLog
	groups    map[int64]model.Group
	nextID    int64
	updateErr error
	deleteErr map[int64]error
}

func (m *mockGroupStore) Create(_ context.Context, g model.Group) (int64, error) {
	m.nextID++
	g.ID = m.nextID
	m.groups[g.ID] = g
	m.log.add("group.create %s", g.Name)
	return g.ID, nil
}

func (m *mockGroupStore) GetByID(_ context.Context, id int64) (*model.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *mockGroupStore) ListAll(_ context.Context) ([]model.Group, error) {
	out := make([]model.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGroupStore) ListChildren(_ context.Context, parentID *int64) ([]model.GroupView, error) {
	var out []model.GroupView
	for _, g := range m.groups {
		if model.SameGroup(g.ParentID, parentID) {
			out = append(out, model.GroupView{Group: g})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockGroupStore) Update(_ context.Context, id int64, name string, parentID *int64) error {
	m.log.add("group.update %d", id)
	if m.updateErr != nil {
		return m.updateErr
	}
	g, ok := m.groups[id]
	if !ok {
		return driven.ErrGroupNotFound
	}
	g.Name = name
	g.ParentID = parentID
	m.groups[id] = g
	return nil
}

func (m *mockGroupStore) Delete(_ context.Context, id int64) error {
	m.log.add("group.delete %s", m.groups[id].Name)
	if err := m.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := m.groups[id]; !ok {
		return driven.ErrGroupNotFound
	}
	delete(m.groups, id)
	return nil
}

// --- CredentialStore ---

type mockCredentialStore struct {
	log         *callLog
	recs        map[int64]model.CredentialRecord
	nextID      int64
	createErr   error
	updateErr   error
	relocateErr error
	deleteErr   map[int64]error
}

func (m *mockCredentialStore) Create(_ context.Context, rec model.CredentialRecord) (int64, error) {
	m.log.add("cred.create %s", rec.Title)
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	rec.ID = m.nextID
	m.recs[rec.ID] = rec
	return rec.ID, nil
}

func (m *mockCredentialStore) GetByID(_ context.Context, id int64) (*model.CredentialRecord, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *mockCredentialStore) ListAll(_ context.Context) ([]model.CredentialRecord, error) {
	return m.filter(func(model.CredentialRecord) bool { return true }), nil
}

func (m *mockCredentialStore) ListByGroups(_ context.Context, groupIDs []int64) ([]model.CredentialRecord, error) {
	in := make(map[int64]bool, len(groupIDs))
	for _, id := range groupIDs {
		in[id] = true
	}
	return m.filter(func(r model.CredentialRecord) bool { return r.GroupID != nil && in[*r.GroupID] }), nil
}

func (m *mockCredentialStore) filter(keep func(model.CredentialRecord) bool) []model.CredentialRecord {
	var out []model.CredentialRecord
	for _, r := range m.recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (m *mockCredentialStore) Update(_ context.Context, id int64, title string, groupID *int64) error {
	m.log.add("cred.update %d", id)
	if m.updateErr != nil {
		return m.updateErr
	}
	rec, ok := m.recs[id]
	if !ok {
		return driven.ErrCredentialNotFound
	}
	rec.Title = title
	rec.GroupID = groupID
	m.recs[id] = rec
	return nil
}

func (m *mockCredentialStore) Relocate(_ context.Context, ids []int64, groupID *int64) (int64, error) {
	m.log.add("cred.relocate %d", len(ids))
	if m.relocateErr != nil {
		return 0, m.relocateErr
	}
	var n int64
	for _, id := range ids {
		if rec, ok := m.recs[id]; ok {
			rec.GroupID = groupID
			m.recs[id] = rec
			n++
		}
	}
	return n, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, id int64) error {
	m.log.add("cred.delete %s", m.recs[id].Title)
	if err := m.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := m.recs[id]; !ok {
		return driven.ErrCredentialNotFound
	}
	delete(m.recs, id)
	return nil
}

// --- IconStore ---

type mockIconStore struct {
	icons  map[int64]model.Icon
	groups *mockGroupStore
	nextID int64
}

func (m *mockIconStore) Create(_ context.Context, icon model.Icon) (int64, error) {
	m.nextID++
	icon.ID = m.nextID
	m.icons[icon.ID] = icon
	return icon.ID, nil
}

func (m *mockIconStore) GetByID(_ context.Context, id int64) (*model.Icon, error) {
	icon, ok := m.icons[id]
	if !ok {
		return nil, nil
	}
	return &icon, nil
}

func (m *mockIconStore) ListAll(_ context.Context) ([]model.Icon, error) {
	out := make([]model.Icon, 0, len(m.icons))
	for _, icon := range m.icons {
		out = append(out, icon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockIconStore) Count(_ context.Context) (int, error) {
	return len(m.icons), nil
}

func (m *mockIconStore) IsReferenced(_ context.Context, id int64) (bool, error) {
	for _, g := range m.groups.groups {
		if g.IconID != nil && *g.IconID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockIconStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.icons[id]; !ok {
		return driven.ErrIconNotFound
	}
	if used, _ := m.IsReferenced(ctx, id); used {
		return model.ErrIconInUse
	}
	delete(m.icons, id)
	return nil
}

func (m *mockIconStore) DeleteUnreferenced(ctx context.Context, keep []int64) (int, error) {
	spare := make(map[int64]bool, len(keep))
	for _, id := range keep {
		spare[id] = true
	}
	n := 0
	for id := range m.icons {
		if used, _ := m.IsReferenced(ctx, id); used || spare[id] {
			continue
		}
		delete(m.icons, id)
		n++
	}
	return n, nil
}

// --- VaultWiper ---

type mockWiper struct {
	log   *callLog
	v     *testVault
	err   error
	wiped bool
}

func (m *mockWiper) WipeAll(_ context.Context) error {
	m.log.add("metadata.wipe")
	if m.err != nil {
		return m.err
	}
	m.v.creds.recs = map[int64]model.CredentialRecord{}
	m.v.groups.groups = map[int64]model.Group{}
	m.v.icons.icons = map[int64]model.Icon{}
	m.wiped = true
	return nil
}

// testVault bundles the mocks and the services built on them.
type testVault struct {
	log     *callLog
	secrets *mockSecretStore
	groups  *mockGroupStore
	creds   *mockCredentialStore
	icons   *mockIconStore
	wiper   *mockWiper

	vault *VaultService
	query *QueryService
	icon  *IconService
	audit *AuditService
}

func newTestVault() *testVault {
	log := &callLog{}
	v := &testVault{log: log}
	v.secrets = &mockSecretStore{log: log, data: map[string][]byte{}, deleteErr: map[string]error{}}
	v.groups = &mockGroupStore{log: log, groups: map[int64]model.Group{}, deleteErr: map[int64]error{}}
	v.creds = &mockCredentialStore{log: log, recs: map[int64]model.CredentialRecord{}, deleteErr: map[int64]error{}}
	v.icons = &mockIconStore{icons: map[int64]model.Icon{}, groups: v.groups}
	v.wiper = &mockWiper{log: log, v: v}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := NewGate()
	v.vault = NewVaultService(gate, v.groups, v.creds, v.icons, v.secrets, v.wiper, logger)
	keys := 0
	v.vault.newKey = func() string {
		keys++
		return fmt.Sprintf("key-%d", keys)
	}
	v.query = NewQueryService(gate, v.groups, v.creds, v.secrets)
	v.icon = NewIconService(gate, v.icons, logger)
	v.audit = NewAuditService(gate, v.creds, v.secrets, logger)
	return v
}

// seedGroup inserts a group directly into the mock, bypassing the service.
func (v *testVault) seedGroup(name string, parent *int64) int64 {
	id, _ := v.groups.Create(context.Background(), model.Group{Name: name, ParentID: parent})
	return id
}

// seedCredential inserts a record and its secret directly into the mocks.
func (v *testVault) seedCredential(title string, group *int64) model.CredentialRecord {
	key := "seed-" + strings.ToLower(title)
	v.secrets.data[key] = []byte(`{"username":"u","password":"p"}`)
	id, _ := v.creds.Create(context.Background(), model.CredentialRecord{GroupID: group, Title: title, SecretKey: key})
	return v.creds.recs[id]
}

func ptr(id int64) *int64 { return &id }
