package client

import (
	"context"
	"fmt"
	"net/url"
)

// SubjectsService handles the subject catalogue.
type SubjectsService struct {
	client *Client
}

// ListSubjectsOptions filter the subject listing.
type ListSubjectsOptions struct {
	ExamType        string
	IncludeInactive bool
}

func (s *SubjectsService) List(ctx context.Context, opts ListSubjectsOptions) ([]Subject, error) {
	query := url.Values{}
	if opts.ExamType != "" {
		query.Set("exam_type", opts.ExamType)
	}
	if opts.IncludeInactive {
		query.Set("active_only", "false")
	}

	path := "/subjects"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var subjects []Subject
	if err := s.client.get(ctx, path, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (s *SubjectsService) Get(ctx context.Context, id int64) (*Subject, error) {
	var subject Subject
	if err := s.client.get(ctx, fmt.Sprintf("/subjects/%d", id), &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// SubjectInput is the payload for creating or updating a subject.
type SubjectInput struct {
	Name        string  `json:"name"`
	ExamType    string  `json:"exam_type"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (s *SubjectsService) Create(ctx context.Context, input SubjectInput) (*Subject, error) {
	var subject Subject
	if err := s.client.post(ctx, "/subjects", input, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *SubjectsService) Update(ctx context.Context, id int64, input SubjectInput) (*Subject, error) {
	var subject Subject
	if err := s.client.put(ctx, fmt.Sprintf("/subjects/%d", id), input, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *SubjectsService) Delete(ctx context.Context, id int64) error {
	return s.client.delete(ctx, fmt.Sprintf("/subjects/%d", id), nil)
}

type subjectSearchResponse struct {
	Results []Subject `json:"results"`
	Query   string    `json:"query"`
}

// Search matches subjects by name or exam type.
func (s *SubjectsService) Search(ctx context.Context, q string) ([]Subject, error) {
	query := url.Values{}
	query.Set("q", q)

	var resp subjectSearchResponse
	if err := s.client.get(ctx, "/search/subjects?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
