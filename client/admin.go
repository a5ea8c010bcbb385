package client

import (
	"context"
	"fmt"
)

// AdminService handles moderation and platform statistics. Every call
// requires an admin account.
type AdminService struct {
	client *Client
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.client.get(ctx, "/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *AdminService) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.client.get(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserFlags set a user's moderation state. Nil fields are omitted from the
// request and leave the server-side value unchanged.
type UserFlags struct {
	IsVerified *bool `json:"is_verified,omitempty"`
	IsAdmin    *bool `json:"is_admin,omitempty"`
}

// Bool returns a pointer for use in UserFlags.
func Bool(v bool) *bool { return &v }

func (s *AdminService) UpdateUser(ctx context.Context, id int64, flags UserFlags) (*User, error) {
	var user User
	if err := s.client.put(ctx, fmt.Sprintf("/admin/users/%d", id), flags, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	return s.client.delete(ctx, fmt.Sprintf("/admin/users/%d", id), nil)
}

// Notes lists every note, including unpublished ones.
func (s *AdminService) Notes(ctx context.Context) ([]Note, error) {
	var notes []Note
	if err := s.client.get(ctx, "/admin/notes", &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

type togglePublishResponse struct {
	ID          int64 `json:"id"`
	IsPublished bool  `json:"is_published"`
}

// TogglePublish flips a note's publish state and returns the new value.
func (s *AdminService) TogglePublish(ctx context.Context, id int64) (bool, error) {
	var resp togglePublishResponse
	if err := s.client.put(ctx, fmt.Sprintf("/admin/notes/%d/publish", id), nil, &resp); err != nil {
		return false, err
	}
	return resp.IsPublished, nil
}
