package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
	// onFind, when set, can tamper with the copy handed to the caller.
	onFind func(u *domain.User)
	writes int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) found(u *domain.User) *domain.User {
	c := cloneUser(u)
	if r.onFind != nil {
		r.onFind(c)
	}
	return c
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.found(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.found(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByVerificationToken(_ context.Context, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if hash != "" && u.VerificationTokenHash == hash {
			return r.found(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if hash != "" && u.ResetTokenHash == hash {
			return r.found(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailExists
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("u%d", r.nextID)
	u.Version = 1
	r.users[u.ID] = cloneUser(u)
	r.writes++
	return nil
}

func (r *stubUserRepo) casLocked(id string, version int64) (*domain.User, error) {
	stored, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if stored.Version != version {
		return nil, domain.ErrConcurrentModification
	}
	return stored, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.casLocked(u.ID, u.Version); err != nil {
		return err
	}
	for _, existing := range r.users {
		if existing.ID != u.ID && existing.Email == u.Email {
			return domain.ErrEmailExists
		}
	}
	u.Version++
	r.users[u.ID] = cloneUser(u)
	r.writes++
	return nil
}

func (r *stubUserRepo) SetStatus(_ context.Context, id string, version int64, status domain.UserStatus, modifiedBy string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	stored.SetStatus(status)
	stored.LastModifiedBy = modifiedBy
	stored.Version++
	r.writes++
	return cloneUser(stored), nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id string, version int64, deletedBy, reason string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stored.IsDeleted = true
	stored.DeletedAt = &now
	stored.DeletedBy = deletedBy
	stored.DeleteReason = reason
	stored.Version++
	r.writes++
	return cloneUser(stored), nil
}

func (r *stubUserRepo) Restore(_ context.Context, id string, version int64, restoredBy string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	stored.IsDeleted = false
	stored.DeletedAt = nil
	stored.DeletedBy = ""
	stored.DeleteReason = ""
	stored.SetStatus(domain.StatusActive)
	stored.LastModifiedBy = restoredBy
	stored.Version++
	r.writes++
	return cloneUser(stored), nil
}

func (r *stubUserRepo) matching(f ports.UserFilter) []*domain.User {
	var out []*domain.User
	search := strings.ToLower(f.Search)
	for _, u := range r.users {
		if f.IsDeleted != nil && u.IsDeleted != *f.IsDeleted {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(u.Email, search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(f)
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *stubUserRepo) Count(_ context.Context, f ports.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

// seed stores u directly and returns its id.
func (r *stubUserRepo) seed(u *domain.User) string {
	if u.Status == "" {
		u.SetStatus(domain.StatusActive)
	}
	if u.Email == "" {
		u.Email = fmt.Sprintf("seed%d@clinic.test", r.nextID+1)
	}
	if err := r.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u.ID
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

// ---------------------------------------------------------------------------
// patient repository
// ---------------------------------------------------------------------------

type stubPatientRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.PatientProfile
	creates  int
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{profiles: make(map[string]*domain.PatientProfile)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *domain.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	r.profiles[p.UserID] = &c
	r.creates++
	return nil
}

func (r *stubPatientRepo) FindByUserID(_ context.Context, userID string) (*domain.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrPatientProfileNotFound
	}
	c := *p
	return &c, nil
}

func (r *stubPatientRepo) SoftDeleteByUserID(_ context.Context, userID, deletedBy string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return false, nil
	}
	now := time.Now().UTC()
	p.IsDeleted, p.DeletedAt, p.DeletedBy = true, &now, deletedBy
	return true, nil
}

func (r *stubPatientRepo) RestoreByUserID(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return false, nil
	}
	p.IsDeleted, p.DeletedAt, p.DeletedBy = false, nil, ""
	return true, nil
}

// ---------------------------------------------------------------------------
// collaborators
// ---------------------------------------------------------------------------

type stubAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	err     error
}

func (a *stubAudit) Append(_ context.Context, e *domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *stubNotifier) last(kind domain.NotificationKind) (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i], true
		}
	}
	return domain.Notification{}, false
}

type stubFiles struct {
	mu        sync.Mutex
	saved     map[string][]byte
	deleted   []string
	deleteErr error
}

func newStubFiles() *stubFiles {
	return &stubFiles{saved: make(map[string][]byte)}
}

func (f *stubFiles) Save(_ context.Context, name string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[name] = b
	return nil
}

func (f *stubFiles) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.saved, name)
	return nil
}

type stubCooldown struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (c *stubCooldown) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = make(map[string]bool)
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

var errStoreDown = errors.New("store unavailable")
