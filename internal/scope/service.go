package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/repo"
)

type Service struct {
	repo    *repo.Repository
	adminID string
	logger  *log.Logger
	now     func() time.Time
}

func NewService(r *repo.Repository, adminUserID string) *Service {
	return &Service{
		repo:    r,
		adminID: adminUserID,
		logger:  log.New(log.ComponentScope),
		now:     time.Now,
	}
}

func (s *Service) IsAdmin(userID string) bool {
	return s.adminID != "" && userID == s.adminID
}

// EnsureUser returns the caller's profile, creating it on first contact. New
// users start pending approval; the configured admin is approved immediately.
// The second return reports whether the profile was just created.
func (s *Service) EnsureUser(ctx context.Context, userID string) (core.User, bool, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return core.User{}, false, err
	}

	status := core.StatusPendingApproval
	if s.IsAdmin(userID) {
		status = core.StatusApproved
	}
	now := s.now().UTC()
	u = core.User{
		TelegramUserID: userID,
		Status:         status,
		CreatedAt:      now,
		RequestedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return core.User{}, false, err
	}
	s.logger.InfoContext(ctx, "registered new user",
		log.FieldUserID, userID, "status", string(status))
	return u, true, nil
}

// Resolve maps a user to the scope their receipts live in. A profile pointing
// at a deleted group yields ErrStaleGroupRef; callers clear the reference with
// ClearStaleGroup and retry.
func (s *Service) Resolve(ctx context.Context, u core.User) (Scope, error) {
	if u.GroupID == "" {
		return Personal(u.TelegramUserID), nil
	}

	name, err := s.groupLabel(ctx, u.GroupID)
	if errors.Is(err, core.ErrGroupNotFound) {
		return Scope{}, fmt.Errorf("user %s references group %s: %w",
			u.TelegramUserID, u.GroupID, core.ErrStaleGroupRef)
	}
	if err != nil {
		return Scope{}, err
	}
	return ForGroup(u.GroupID, name), nil
}

// ClearStaleGroup drops a dangling group reference from the user's profile.
func (s *Service) ClearStaleGroup(ctx context.Context, userID string) error {
	s.logger.WarnContext(ctx, "clearing stale group reference", log.FieldUserID, userID)
	return s.repo.ClearUserGroup(ctx, userID)
}

// groupLabel reads the group on every call. Resolving through stored state
// keeps a deletion in one process visible to the next Resolve in another.
func (s *Service) groupLabel(ctx context.Context, groupID string) (string, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if g.Name == "" {
		return UnnamedGroupLabel, nil
	}
	return g.Name, nil
}

// --- group membership ---

// CreateGroup creates a group owned by the caller and moves them into it.
// Surrounding whitespace never makes it into the stored name.
func (s *Service) CreateGroup(ctx context.Context, u core.User, name string) (core.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Group{}, core.ErrEmptyGroupName
	}
	if u.GroupID != "" {
		return core.Group{}, core.ErrAlreadyInGroup
	}

	g := core.Group{
		Name:          name,
		OwnerID:       u.TelegramUserID,
		MemberUserIDs: []string{u.TelegramUserID},
		CreatedAt:     s.now().UTC(),
	}
	id, err := s.repo.CreateGroup(ctx, g)
	if err != nil {
		return core.Group{}, err
	}
	g.ID = id

	if err := s.repo.SetUserGroup(ctx, u.TelegramUserID, id); err != nil {
		return core.Group{}, err
	}
	s.logger.InfoContext(ctx, "group created",
		log.FieldGroupID, id, log.FieldUserID, u.TelegramUserID, "name", name)
	return g, nil
}

// JoinGroup adds the caller to an existing group. Joining the group the user
// is already in succeeds without changes; being in a different group fails.
func (s *Service) JoinGroup(ctx context.Context, u core.User, groupID string) (core.Group, error) {
	if u.GroupID == groupID && groupID != "" {
		return s.repo.GetGroup(ctx, groupID)
	}
	if u.GroupID != "" {
		return core.Group{}, core.ErrAlreadyInGroup
	}

	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return core.Group{}, err
	}
	if err := s.repo.AddGroupMember(ctx, groupID, u.TelegramUserID); err != nil {
		return core.Group{}, err
	}
	if err := s.repo.SetUserGroup(ctx, u.TelegramUserID, groupID); err != nil {
		return core.Group{}, err
	}
	s.logger.InfoContext(ctx, "user joined group",
		log.FieldGroupID, groupID, log.FieldUserID, u.TelegramUserID)
	return g, nil
}

// LeaveGroup removes the caller from their group. The group document stays
// even when its member list empties out.
func (s *Service) LeaveGroup(ctx context.Context, u core.User) error {
	if u.GroupID == "" {
		return core.ErrNotInGroup
	}

	err := s.repo.RemoveGroupMember(ctx, u.GroupID, u.TelegramUserID)
	if err != nil && !errors.Is(err, core.ErrGroupNotFound) {
		return err
	}
	if err := s.repo.ClearUserGroup(ctx, u.TelegramUserID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user left group",
		log.FieldGroupID, u.GroupID, log.FieldUserID, u.TelegramUserID)
	return nil
}

// GroupInfo returns the caller's group, or ErrNotInGroup / ErrStaleGroupRef.
func (s *Service) GroupInfo(ctx context.Context, u core.User) (core.Group, error) {
	if u.GroupID == "" {
		return core.Group{}, core.ErrNotInGroup
	}
	g, err := s.repo.GetGroup(ctx, u.GroupID)
	if errors.Is(err, core.ErrGroupNotFound) {
		return core.Group{}, fmt.Errorf("user %s references group %s: %w",
			u.TelegramUserID, u.GroupID, core.ErrStaleGroupRef)
	}
	return g, err
}

// --- admin operations ---

func (s *Service) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, userID string) (core.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) SetUserStatus(ctx context.Context, userID string, status core.UserStatus) error {
	if !core.ValidStatus(status) {
		return fmt.Errorf("status %q: %w", status, core.ErrInvalidStatus)
	}
	if err := s.repo.SetUserStatus(ctx, userID, status); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user status changed",
		log.FieldUserID, userID, "status", string(status))
	return nil
}

// AdminCreateGroup creates a group with no members, owned by the admin.
func (s *Service) AdminCreateGroup(ctx context.Context, adminID, name string) (core.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Group{}, core.ErrEmptyGroupName
	}
	g := core.Group{
		Name:          name,
		OwnerID:       adminID,
		MemberUserIDs: []string{},
		CreatedAt:     s.now().UTC(),
	}
	id, err := s.repo.CreateGroup(ctx, g)
	if err != nil {
		return core.Group{}, err
	}
	g.ID = id
	return g, nil
}

// AdminAddUserToGroup force-moves a user into a group, detaching them from
// their current group first if they have one.
func (s *Service) AdminAddUserToGroup(ctx context.Context, userID, groupID string) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if u.GroupID != "" && u.GroupID != groupID {
		err := s.repo.RemoveGroupMember(ctx, u.GroupID, userID)
		if err != nil && !errors.Is(err, core.ErrGroupNotFound) {
			return err
		}
	}
	if err := s.repo.AddGroupMember(ctx, groupID, userID); err != nil {
		return err
	}
	return s.repo.SetUserGroup(ctx, userID, groupID)
}

// AdminRemoveUserFromGroup detaches a user from whatever group they are in.
func (s *Service) AdminRemoveUserFromGroup(ctx context.Context, userID string) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.GroupID == "" {
		return core.ErrNotInGroup
	}
	err = s.repo.RemoveGroupMember(ctx, u.GroupID, userID)
	if err != nil && !errors.Is(err, core.ErrGroupNotFound) {
		return err
	}
	return s.repo.ClearUserGroup(ctx, userID)
}

// AdminDeleteGroup deletes a group and detaches every member. Receipts
// recorded under the group keep their groupId for history.
func (s *Service) AdminDeleteGroup(ctx context.Context, groupID string) error {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	for _, memberID := range g.MemberUserIDs {
		if err := s.repo.ClearUserGroup(ctx, memberID); err != nil && !errors.Is(err, core.ErrUserNotFound) {
			return err
		}
	}
	if err := s.repo.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "group deleted",
		log.FieldGroupID, groupID, "members_detached", len(g.MemberUserIDs))
	return nil
}
