// Package google implements the workspace capability interfaces on top of
// the Google Workspace APIs (Gmail, Chat, Drive, Tasks).
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/chat/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/oshaani/workspace-employee/internal/credentials"
	"github.com/oshaani/workspace-employee/internal/workspace"
)

// TokenSource builds an auto-refreshing token source bound to one
// credential.
func TokenSource(ctx context.Context, cred credentials.Credential) oauth2.TokenSource {
	tokenURL := cred.TokenURI
	if tokenURL == "" {
		tokenURL = credentials.DefaultTokenURI
	}
	conf := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	return conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	})
}

// Factory builds per-credential Workspace bundles.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// ForCredential builds the full capability bundle for one user's
// credential.
func (f *Factory) ForCredential(ctx context.Context, cred credentials.Credential) (*workspace.Workspace, error) {
	ts := TokenSource(ctx, cred)

	gmailSvc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build gmail service: %w", err)
	}
	chatSvc, err := chat.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build chat service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	tasksSvc, err := tasks.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build tasks service: %w", err)
	}

	return &workspace.Workspace{
		Mail:     &MailService{svc: gmailSvc},
		Chat:     &ChatService{svc: chatSvc},
		Drive:    &DriveService{svc: driveSvc},
		Tasks:    &TasksService{svc: tasksSvc},
		Identity: &IdentityService{ts: ts},
	}, nil
}
