package service

import (
	"context"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// GroupService manages groups and their member lists. Group membership is
// a thin collaborator surface: the balance aggregator needs it for group
// and breakdown views.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// Create persists a new group. The creator is always a member.
func (s *GroupService) Create(ctx context.Context, actorID, name string, memberIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, errs.Validationf("group name is required")
	}

	members := []string{actorID}
	seen := map[string]bool{actorID: true}
	for _, id := range memberIDs {
		if !seen[id] {
			members = append(members, id)
			seen[id] = true
		}
	}

	group := &models.Group{Name: name, Members: members}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Get retrieves a group with its members. Only members may read a group.
func (s *GroupService) Get(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !contains(group.Members, actorID) {
		return nil, errs.Authorizationf("only members may view a group")
	}
	return group, nil
}

// AddMembers adds users to the group. Only members may add members.
func (s *GroupService) AddMembers(ctx context.Context, actorID, groupID string, userIDs []string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !contains(group.Members, actorID) {
		return errs.Authorizationf("only members may add members")
	}
	return s.store.AddGroupMembers(ctx, groupID, userIDs)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
