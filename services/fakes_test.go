package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/repositories"
	"github.com/Dosada05/notes-app/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, _ repositories.SQLExecutor, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type memberKey struct{ org, user int }

type fakeOrgRepo struct {
	mu      sync.Mutex
	orgs    map[int]*models.Organization
	members map[memberKey]*models.Member
	users   *fakeUserRepo
	nextID  int
	joined  int
}

func newFakeOrgRepo(users *fakeUserRepo) *fakeOrgRepo {
	return &fakeOrgRepo{
		orgs:    make(map[int]*models.Organization),
		members: make(map[memberKey]*models.Member),
		users:   users,
		nextID:  1,
	}
}

func (r *fakeOrgRepo) Create(_ context.Context, _ repositories.SQLExecutor, org *models.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	org.ID = r.nextID
	r.nextID++
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id int) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, repositories.ErrOrganizationNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrgRepo) ListByUser(_ context.Context, userID int) ([]models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orgs := make([]models.Organization, 0)
	for k, m := range r.members {
		if k.user == userID {
			o := *r.orgs[k.org]
			o.Role = m.Role
			orgs = append(orgs, o)
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

func (r *fakeOrgRepo) AddMember(_ context.Context, _ repositories.SQLExecutor, member *models.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey{member.OrganizationID, member.UserID}
	if _, ok := r.members[k]; ok {
		return repositories.ErrMemberConflict
	}
	if _, ok := r.orgs[member.OrganizationID]; !ok {
		return repositories.ErrMemberUserInvalid
	}
	r.joined++
	member.JoinedAt = time.Unix(int64(r.joined), 0)
	cp := *member
	r.members[k] = &cp
	return nil
}

func (r *fakeOrgRepo) GetMember(_ context.Context, orgID, userID int) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberKey{orgID, userID}]
	if !ok {
		return nil, repositories.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeOrgRepo) ListMembers(ctx context.Context, orgID int) ([]models.Member, error) {
	r.mu.Lock()
	members := make([]models.Member, 0)
	for k, m := range r.members {
		if k.org == orgID {
			members = append(members, *m)
		}
	}
	r.mu.Unlock()

	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	for i := range members {
		u, err := r.users.GetByID(ctx, members[i].UserID)
		if err == nil {
			members[i].User = u
		}
	}
	return members, nil
}

func (r *fakeOrgRepo) RemoveMember(_ context.Context, orgID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey{orgID, userID}
	if _, ok := r.members[k]; !ok {
		return repositories.ErrMemberNotFound
	}
	delete(r.members, k)
	return nil
}

type fakeNoteRepo struct {
	mu          sync.Mutex
	notes       map[int]*models.Note
	attachments []models.Attachment
	nextID      int
	failAttach  error
	locked      []int
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[int]*models.Note), nextID: 1}
}

func (r *fakeNoteRepo) Create(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note.ID = r.nextID
	r.nextID++
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	cp := *note
	r.notes[note.ID] = &cp
	return nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, id int) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, repositories.ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNoteRepo) ListByOrganization(_ context.Context, orgID int) ([]models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes := make([]models.Note, 0)
	for _, n := range r.notes {
		if n.OrganizationID == orgID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *fakeNoteRepo) LockByOrganization(ctx context.Context, _ repositories.SQLExecutor, orgID int) ([]models.Note, error) {
	r.mu.Lock()
	r.locked = append(r.locked, orgID)
	r.mu.Unlock()
	return r.ListByOrganization(ctx, orgID)
}

func (r *fakeNoteRepo) Update(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[note.ID]
	if !ok {
		return repositories.ErrNoteNotFound
	}
	n.Title = note.Title
	n.Content = note.Content
	n.UpdatedAt = time.Now()
	note.UpdatedAt = n.UpdatedAt
	return nil
}

func (r *fakeNoteRepo) UpdatePlacement(_ context.Context, _ repositories.SQLExecutor, id int, parentID *int, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return repositories.ErrNoteNotFound
	}
	n.ParentID = parentID
	n.Position = position
	return nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return repositories.ErrNoteNotFound
	}
	r.deleteSubtree(id)
	return nil
}

func (r *fakeNoteRepo) deleteSubtree(id int) {
	delete(r.notes, id)
	kept := r.attachments[:0]
	for _, a := range r.attachments {
		if a.NoteID != id {
			kept = append(kept, a)
		}
	}
	r.attachments = kept
	for childID, n := range r.notes {
		if n.ParentID != nil && *n.ParentID == id {
			r.deleteSubtree(childID)
		}
	}
}

func (r *fakeNoteRepo) ListSubtreeAttachmentKeys(_ context.Context, noteID int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subtree := map[int]bool{noteID: true}
	for grew := true; grew; {
		grew = false
		for id, n := range r.notes {
			if !subtree[id] && n.ParentID != nil && subtree[*n.ParentID] {
				subtree[id] = true
				grew = true
			}
		}
	}
	keys := make([]string, 0)
	for _, a := range r.attachments {
		if subtree[a.NoteID] {
			keys = append(keys, a.Key)
		}
	}
	return keys, nil
}

func (r *fakeNoteRepo) NextPosition(_ context.Context, orgID int, parentID *int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := 0
	for _, n := range r.notes {
		if n.OrganizationID != orgID {
			continue
		}
		sameParent := (n.ParentID == nil && parentID == nil) ||
			(n.ParentID != nil && parentID != nil && *n.ParentID == *parentID)
		if sameParent && n.Position >= pos {
			pos = n.Position + 1
		}
	}
	return pos, nil
}

func (r *fakeNoteRepo) AddAttachment(_ context.Context, a *models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAttach != nil {
		return r.failAttach
	}
	a.ID = len(r.attachments) + 1
	a.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *a)
	return nil
}

func (r *fakeNoteRepo) ListAttachments(_ context.Context, noteID int) ([]models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Attachment, 0)
	for _, a := range r.attachments {
		if a.NoteID == noteID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.notes.test/" + key
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendMemberAddedEmail(to, organizationName string, newAccount bool) error {
	m.sent = append(m.sent, fmt.Sprintf("%s|%s|%t", to, organizationName, newAccount))
	return m.err
}

type recordedBroadcast struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []recordedBroadcast
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, recordedBroadcast{room: roomID, message: message})
}

type disconnectCall struct {
	room   string
	userID int
}

type fakeDisconnector struct {
	mu    sync.Mutex
	calls []disconnectCall
}

func (d *fakeDisconnector) DisconnectUser(roomID string, userID int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, disconnectCall{room: roomID, userID: userID})
	return 1
}

func intPtr(v int) *int { return &v }
