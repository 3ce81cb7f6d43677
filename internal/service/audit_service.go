package service

import (
	"context"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for i := range logs {
		res = append(res, toAuditLogResponse(&logs[i]))
	}
	return res, total, nil
}

func toAuditLogResponse(l *model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID.String(),
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format(timeLayout),
	}
	if l.UserID != nil {
		resp.UserID = l.UserID.String()
	}
	if l.User != nil {
		resp.UserName = l.User.Name
	}
	return resp
}
