package httpapi

import (
	"time"

	"github.com/dmitrijs2005/docshare/internal/server/models"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.UserName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type profileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type documentRequest struct {
	FileName string `json:"file_name"`
}

type documentResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	FileName  string    `json:"file_name"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDocumentResponse(d *models.Document) documentResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return documentResponse{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		FileName:  d.FileName,
		Tags:      tags,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type tagRequest struct {
	Name string `json:"name"`
}

type renameTagRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

type uploadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type shareRequest struct {
	Email string `json:"email"`
	Level string `json:"level"`
}

type unshareRequest struct {
	Email string `json:"email"`
}

type permissionResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Level      string    `json:"level"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPermissionResponse(p *models.Permission) permissionResponse {
	return permissionResponse{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		UserID:     p.UserID,
		Level:      string(p.Level),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type linkRequest struct {
	FileID string `json:"fileId"`
}

type linkResponse struct {
	Link      string    `json:"link"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
