package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/storage"
)

// GroupService handles group and member CRUD. None of its operations
// affect balances beyond zero-initializing new members.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroupInput is the payload for creating a group.
type CreateGroupInput struct {
	Name     string
	Currency string
	Members  []string
}

// CreateGroup creates a new group with its initial members, each starting
// at a zero balance.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, InvalidInputf("group name must not be empty")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return nil, InvalidInputf("group currency must not be empty")
	}

	group := &models.Group{
		Name:     in.Name,
		Currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
	}
	for _, name := range in.Members {
		if strings.TrimSpace(name) == "" {
			return nil, InvalidInputf("member name must not be empty")
		}
		group.Members = append(group.Members, models.Member{Name: name})
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, mapStorageError("persist group", err)
	}

	slog.Info("Group created", "group_id", group.ID, "name", group.Name, "currency", group.Currency, "members_count", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group with its members and their current balances.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStorageError("load group", err)
	}
	return group, nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, mapStorageError("list groups", err)
	}
	return groups, nil
}

// DeleteGroup removes a group together with its members and expenses.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return mapStorageError("delete group", err)
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// AddMember adds a member to an existing group with a zero balance.
func (s *GroupService) AddMember(ctx context.Context, groupID, name string) (*models.Member, error) {
	if strings.TrimSpace(name) == "" {
		return nil, InvalidInputf("member name must not be empty")
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStorageError("load group", err)
	}

	member := &models.Member{GroupID: group.ID, Name: name}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, mapStorageError("persist member", err)
	}

	slog.Info("Member added", "group_id", group.ID, "member_id", member.ID, "name", member.Name)
	return member, nil
}

// GetMember retrieves a single member with their current balance.
func (s *GroupService) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, mapStorageError("load member", err)
	}
	return member, nil
}
