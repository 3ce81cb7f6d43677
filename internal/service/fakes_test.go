package service

import (
	"context"
	"strings"
	"sync"

	"shopapi/internal/model"
	"shopapi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. Missing records surface as
// gorm.ErrRecordNotFound, matching the real GORM-backed implementations.

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
	roles map[uuid.UUID][]uuid.UUID // userID -> role IDs
	repo  *fakeRoleRepo             // resolves role IDs to full roles
}

func newFakeUserRepo(roleRepo *fakeRoleRepo) *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[uuid.UUID]*model.User),
		roles: make(map[uuid.UUID][]uuid.UUID),
		repo:  roleRepo,
	}
}

func (f *fakeUserRepo) add(u model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserRepo) grant(userID, roleID uuid.UUID) {
	f.roles[userID] = append(f.roles[userID], roleID)
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByIDWithRoles(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Roles = f.rolesOf(id)
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int, filter repository.UserFilter) ([]model.User, int64, error) {
	var out []model.User
	for id, u := range f.users {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Status != "" && u.VerifyStatus != filter.Status {
			continue
		}
		copied := *u
		copied.Roles = f.rolesOf(id)
		if filter.RoleSlug != "" && !copied.HasRoleSlug(filter.RoleSlug) {
			continue
		}
		out = append(out, copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	delete(f.roles, id)
	return nil
}

func (f *fakeUserRepo) AppendRole(_ context.Context, user *model.User, role *model.Role) error {
	for _, rid := range f.roles[user.ID] {
		if rid == role.ID {
			return nil
		}
	}
	f.roles[user.ID] = append(f.roles[user.ID], role.ID)
	return nil
}

func (f *fakeUserRepo) RemoveRole(_ context.Context, user *model.User, role *model.Role) error {
	kept := f.roles[user.ID][:0]
	for _, rid := range f.roles[user.ID] {
		if rid != role.ID {
			kept = append(kept, rid)
		}
	}
	f.roles[user.ID] = kept
	return nil
}

func (f *fakeUserRepo) ReplaceRoles(_ context.Context, user *model.User, roles []model.Role) error {
	ids := make([]uuid.UUID, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	f.roles[user.ID] = ids
	return nil
}

func (f *fakeUserRepo) ListRolesWithPermissions(_ context.Context, userID uuid.UUID) ([]model.Role, error) {
	if _, ok := f.users[userID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.rolesOf(userID), nil
}

func (f *fakeUserRepo) CountByRoleSlug(_ context.Context, slug string) (int64, error) {
	var count int64
	for userID := range f.users {
		for _, r := range f.rolesOf(userID) {
			if r.Slug == slug {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeUserRepo) rolesOf(userID uuid.UUID) []model.Role {
	out := make([]model.Role, 0)
	for _, rid := range f.roles[userID] {
		if r, ok := f.repo.roles[rid]; ok {
			copied := *r
			copied.Permissions = f.repo.permsOf(rid)
			out = append(out, copied)
		}
	}
	return out
}

// --- roles ---

type fakeRoleRepo struct {
	roles map[uuid.UUID]*model.Role
	perms map[uuid.UUID][]model.Permission // roleID -> granted permissions
	users *fakeUserRepo                    // back-reference for CountUsers
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles: make(map[uuid.UUID]*model.Role),
		perms: make(map[uuid.UUID][]model.Permission),
	}
}

func (f *fakeRoleRepo) add(r model.Role) *model.Role {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if len(r.Permissions) > 0 {
		f.perms[r.ID] = r.Permissions
		r.Permissions = nil
	}
	f.roles[r.ID] = &r
	return &r
}

func (f *fakeRoleRepo) permsOf(roleID uuid.UUID) []model.Permission {
	return append([]model.Permission(nil), f.perms[roleID]...)
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	copied := *role
	f.roles[role.ID] = &copied
	return nil
}

func (f *fakeRoleRepo) Update(_ context.Context, role *model.Role) error {
	if _, ok := f.roles[role.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *role
	f.roles[role.ID] = &copied
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.roles, id)
	delete(f.perms, id)
	return nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoleRepo) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	r, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Permissions = f.permsOf(id)
	return r, nil
}

func (f *fakeRoleRepo) FindBySlug(_ context.Context, slug string) (*model.Role, error) {
	for id, r := range f.roles {
		if r.Slug == slug {
			copied := *r
			copied.Permissions = f.permsOf(id)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) List(_ context.Context, _, _ int, filter repository.RoleFilter) ([]model.Role, int64, error) {
	var out []model.Role
	for id, r := range f.roles {
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.IsActive != nil && r.IsActive != *filter.IsActive {
			continue
		}
		copied := *r
		copied.Permissions = f.permsOf(id)
		out = append(out, copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRoleRepo) SlugTaken(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	for id, r := range f.roles {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if r.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoleRepo) NameTaken(_ context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	for id, r := range f.roles {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoleRepo) CountUsers(_ context.Context, roleID uuid.UUID) (int64, error) {
	if f.users == nil {
		return 0, nil
	}
	var count int64
	for _, rids := range f.users.roles {
		for _, rid := range rids {
			if rid == roleID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeRoleRepo) AppendPermission(_ context.Context, role *model.Role, perm *model.Permission) error {
	for _, p := range f.perms[role.ID] {
		if p.ID == perm.ID {
			return nil
		}
	}
	f.perms[role.ID] = append(f.perms[role.ID], *perm)
	return nil
}

func (f *fakeRoleRepo) RemovePermission(_ context.Context, role *model.Role, perm *model.Permission) error {
	kept := f.perms[role.ID][:0]
	for _, p := range f.perms[role.ID] {
		if p.ID != perm.ID {
			kept = append(kept, p)
		}
	}
	f.perms[role.ID] = kept
	return nil
}

func (f *fakeRoleRepo) ReplacePermissions(_ context.Context, role *model.Role, perms []model.Permission) error {
	f.perms[role.ID] = append([]model.Permission(nil), perms...)
	return nil
}

func (f *fakeRoleRepo) ClearPermissions(_ context.Context, role *model.Role) error {
	delete(f.perms, role.ID)
	return nil
}

// --- permissions ---

type fakePermRepo struct {
	perms map[uuid.UUID]*model.Permission
	roles *fakeRoleRepo // back-reference for CountRoles
}

func newFakePermRepo(roleRepo *fakeRoleRepo) *fakePermRepo {
	return &fakePermRepo{perms: make(map[uuid.UUID]*model.Permission), roles: roleRepo}
}

func (f *fakePermRepo) add(p model.Permission) *model.Permission {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.perms[p.ID] = &p
	return &p
}

func (f *fakePermRepo) Create(_ context.Context, perm *model.Permission) error {
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	copied := *perm
	f.perms[perm.ID] = &copied
	return nil
}

func (f *fakePermRepo) Update(_ context.Context, perm *model.Permission) error {
	if _, ok := f.perms[perm.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *perm
	f.perms[perm.ID] = &copied
	return nil
}

func (f *fakePermRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.perms, id)
	return nil
}

func (f *fakePermRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Permission, error) {
	p, ok := f.perms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePermRepo) FindBySlug(_ context.Context, slug string) (*model.Permission, error) {
	for _, p := range f.perms {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePermRepo) List(_ context.Context, _, _ int, filter repository.PermissionFilter) ([]model.Permission, int64, error) {
	var out []model.Permission
	for _, p := range f.perms {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Module != "" && p.Module != filter.Module {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePermRepo) SlugTaken(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	for id, p := range f.perms {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePermRepo) NameTaken(_ context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	for id, p := range f.perms {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePermRepo) CountRoles(_ context.Context, permID uuid.UUID) (int64, error) {
	if f.roles == nil {
		return 0, nil
	}
	var count int64
	for _, perms := range f.roles.perms {
		for _, p := range perms {
			if p.ID == permID {
				count++
				break
			}
		}
	}
	return count, nil
}

// --- products ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) add(p model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = &p
	return &p
}

func (f *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := f.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductRepo) List(_ context.Context, _, _ int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range f.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) SlugTaken(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	for id, p := range f.products {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *o
	copied.Items = append([]model.OrderItem(nil), o.Items...)
	return &copied, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) List(_ context.Context, _, _ int, status string) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.AuditLog(nil), f.entries...)
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepo) lastAction() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

// --- transactions and notifications ---

// fakeTxManager runs the callback without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeSink records messages and signals arrival for async assertions.
type fakeSink struct {
	mu       sync.Mutex
	messages []string
	arrived  chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{arrived: make(chan struct{}, 16)}
}

func (f *fakeSink) Send(_ context.Context, message string) {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()
	f.arrived <- struct{}{}
}

func (f *fakeSink) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}
