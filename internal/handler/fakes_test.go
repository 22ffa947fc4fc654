package handler

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/church-manager/internal/model"
    "github.com/iliyamo/church-manager/internal/queue"
    "github.com/iliyamo/church-manager/internal/repository"
    "github.com/iliyamo/church-manager/internal/utils"
)

type fakeUsers struct {
    mu     sync.Mutex
    byID   map[uint64]model.User
    nextID uint64
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, email, password string, cost int) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.byID {
        if u.Email == email {
            return 0, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    f.nextID++
    f.byID[f.nextID] = model.User{ID: f.nextID, Email: email, PasswordHash: hash, IsActive: true}
    return f.nextID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.byID {
        if u.Email == email {
            return u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return u, repository.ErrNotFound
    }
    return u, nil
}

type fakeToken struct {
    userID  uint64
    exp     time.Time
    revoked bool
}

type fakeTokens struct {
    mu     sync.Mutex
    byHash map[string]*fakeToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{byHash: map[string]*fakeToken{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.byHash[hash] = &fakeToken{userID: userID, exp: exp}
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.byHash[hash]
    if !ok || t.revoked || time.Now().After(t.exp) {
        return 0, repository.ErrNotFound
    }
    return t.userID, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.byHash[hash]
    if !ok || t.revoked {
        return repository.ErrNotFound
    }
    t.revoked = true
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, t := range f.byHash {
        if t.userID == userID {
            t.revoked = true
        }
    }
    return nil
}

func (f *fakeTokens) active(userID uint64) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, t := range f.byHash {
        if t.userID == userID && !t.revoked {
            n++
        }
    }
    return n
}

type fakeChurches struct {
    mu       sync.Mutex
    churches map[uint64]model.Church
    roles    map[uint64]map[uint64]string // user -> church -> role
    active   map[uint64]uint64
    nextID   uint64
}

func newFakeChurches() *fakeChurches {
    return &fakeChurches{
        churches: map[uint64]model.Church{},
        roles:    map[uint64]map[uint64]string{},
        active:   map[uint64]uint64{},
        nextID:   100,
    }
}

func (f *fakeChurches) add(userID, churchID uint64, name, role string) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.churches[churchID]; !ok {
        f.churches[churchID] = model.Church{ID: churchID, Name: name}
    }
    if f.roles[userID] == nil {
        f.roles[userID] = map[uint64]string{}
    }
    f.roles[userID][churchID] = role
}

func (f *fakeChurches) ListForUser(_ context.Context, userID uint64) ([]model.Membership, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Membership{}
    for cid, role := range f.roles[userID] {
        out = append(out, model.Membership{UserID: userID, ChurchID: cid, ChurchName: f.churches[cid].Name, Role: role})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ChurchName < out[j].ChurchName })
    return out, nil
}

func (f *fakeChurches) activeOf(userID, churchID uint64) model.ActiveChurch {
    role := f.roles[userID][churchID]
    return model.ActiveChurch{ChurchID: churchID, Name: f.churches[churchID].Name, Role: role, Permissions: model.PermissionsFor(role)}
}

func (f *fakeChurches) Active(_ context.Context, userID uint64) (model.ActiveChurch, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    cid, ok := f.active[userID]
    if !ok {
        return model.ActiveChurch{}, repository.ErrNotFound
    }
    if _, member := f.roles[userID][cid]; !member {
        return model.ActiveChurch{}, repository.ErrNotFound
    }
    return f.activeOf(userID, cid), nil
}

func (f *fakeChurches) SetActive(_ context.Context, userID, churchID uint64) (model.ActiveChurch, uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, member := f.roles[userID][churchID]; !member {
        return model.ActiveChurch{}, 0, repository.ErrNotMember
    }
    prev := f.active[userID]
    f.active[userID] = churchID
    return f.activeOf(userID, churchID), prev, nil
}

func (f *fakeChurches) Create(_ context.Context, userID uint64, parentID *uint64, in model.BranchInput) (model.Church, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.nextID++
    c := model.Church{ID: f.nextID, ParentID: parentID, Name: in.Name, City: in.City, State: in.State, CEP: in.CEP}
    f.churches[c.ID] = c
    if f.roles[userID] == nil {
        f.roles[userID] = map[uint64]string{}
    }
    f.roles[userID][c.ID] = model.RoleAdmin
    return c, nil
}

func (f *fakeChurches) Branches(_ context.Context, churchID uint64) ([]model.Church, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Church{}
    for _, c := range f.churches {
        if c.ParentID != nil && *c.ParentID == churchID {
            out = append(out, c)
        }
    }
    return out, nil
}

type fakeMembers struct {
    mu     sync.Mutex
    rows   map[uint64]model.Member
    nextID uint64
}

func newFakeMembers() *fakeMembers { return &fakeMembers{rows: map[uint64]model.Member{}} }

func (f *fakeMembers) List(_ context.Context, churchID uint64, flt model.MemberFilter) (model.MembersPage, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    flt = flt.Normalize()
    page := model.MembersPage{Items: []model.Member{}, Page: flt.Page, PageSize: flt.PageSize}
    for _, m := range f.rows {
        if m.ChurchID == churchID && (flt.Status == "" || m.Status == flt.Status) {
            page.Items = append(page.Items, m)
        }
    }
    sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].ID < page.Items[j].ID })
    page.Total = len(page.Items)
    return page, nil
}

func (f *fakeMembers) Get(_ context.Context, churchID, id uint64) (model.Member, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    m, ok := f.rows[id]
    if !ok || m.ChurchID != churchID {
        return model.Member{}, repository.ErrNotFound
    }
    return m, nil
}

func (f *fakeMembers) Create(_ context.Context, churchID uint64, in model.MemberInput) (model.Member, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.nextID++
    if in.Status == "" {
        in.Status = model.MemberActive
    }
    m := model.Member{ID: f.nextID, ChurchID: churchID, Name: in.Name, Email: in.Email, Gender: in.Gender, Status: in.Status}
    f.rows[m.ID] = m
    return m, nil
}

func (f *fakeMembers) Update(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error) {
    m, err := f.Get(ctx, churchID, id)
    if err != nil {
        return m, err
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    m.Name, m.Email, m.Gender = in.Name, in.Email, in.Gender
    f.rows[id] = m
    return m, nil
}

func (f *fakeMembers) Delete(ctx context.Context, churchID, id uint64) error {
    if _, err := f.Get(ctx, churchID, id); err != nil {
        return err
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.rows, id)
    return nil
}

func (f *fakeMembers) Dashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error) {
    page, _ := f.List(ctx, churchID, model.MemberFilter{PageSize: model.MaxPageSize})
    return model.MembersDashboard{Total: page.Total}, nil
}

func (f *fakeMembers) AvailableLeaders(context.Context, uint64) ([]model.PersonOption, error) {
    return []model.PersonOption{}, nil
}

func (f *fakeMembers) AvailableSpouses(_ context.Context, churchID uint64, g model.GenderFilter) ([]model.PersonOption, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.PersonOption{}
    for _, m := range f.rows {
        if m.ChurchID == churchID && (g.Gender == "" || m.Gender == g.Gender) {
            out = append(out, model.PersonOption{ID: m.ID, Name: m.Name})
        }
    }
    return out, nil
}

type fakePrayers struct {
    rows map[uint64]model.PrayerRequest
}

func (f *fakePrayers) List(_ context.Context, churchID uint64, flt model.PrayerFilter) ([]model.PrayerRequest, error) {
    out := []model.PrayerRequest{}
    for _, p := range f.rows {
        if p.ChurchID == churchID && (flt.Status == "" || p.Status == flt.Status) {
            out = append(out, p)
        }
    }
    return out, nil
}

func (f *fakePrayers) Create(_ context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error) {
    p.ID, p.ChurchID, p.Status = uint64(len(f.rows)+1), churchID, model.PrayerPending
    f.rows[p.ID] = p
    return p, nil
}

func (f *fakePrayers) UpdateStatus(_ context.Context, churchID, id uint64, status string) (model.PrayerRequest, error) {
    p, ok := f.rows[id]
    if !ok || p.ChurchID != churchID {
        return model.PrayerRequest{}, repository.ErrNotFound
    }
    p.Status = status
    f.rows[id] = p
    return p, nil
}

func (f *fakePrayers) Delete(_ context.Context, churchID, id uint64) error {
    p, ok := f.rows[id]
    if !ok || p.ChurchID != churchID {
        return repository.ErrNotFound
    }
    delete(f.rows, id)
    return nil
}

type recordingPurger struct{ users []uint64 }

func (r *recordingPurger) PurgeUser(_ context.Context, userID uint64) (int, error) {
    r.users = append(r.users, userID)
    return 1, nil
}

type recordingPublisher struct{ events []queue.ChurchSwitchedEvent }

func (r *recordingPublisher) PublishChurchSwitched(_ context.Context, ev queue.ChurchSwitchedEvent) error {
    r.events = append(r.events, ev)
    return nil
}
