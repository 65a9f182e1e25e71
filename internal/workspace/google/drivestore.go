package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/oshaani/workspace-employee/internal/credentials"
)

const userDataFilename = "user_data.json"

// DriveStore keeps one JSON settings document per user inside an app-owned
// folder in the user's own Drive. It implements credentials.RemoteStore.
type DriveStore struct {
	folderName string
}

// NewDriveStore creates the store. folderName is the visible folder created
// in each user's Drive.
func NewDriveStore(folderName string) *DriveStore {
	if folderName == "" {
		folderName = "Workspace Employee"
	}
	return &DriveStore{folderName: folderName}
}

func (d *DriveStore) service(ctx context.Context, cred credentials.Credential) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(TokenSource(ctx, cred)))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return svc, nil
}

// LoadUserData fetches the user's settings document, or nil when none
// exists yet.
func (d *DriveStore) LoadUserData(ctx context.Context, cred credentials.Credential, userID string) (*credentials.UserData, error) {
	svc, err := d.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	folderID, err := d.getOrCreateFolder(ctx, svc)
	if err != nil {
		return nil, err
	}
	fileID, err := d.findUserDataFile(ctx, svc, folderID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, nil
	}

	resp, err := svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, wrapErr("Drive files.get_media", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user data: %w", err)
	}
	var data credentials.UserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode user data for %s: %w", userID, err)
	}
	return &data, nil
}

// SaveUserData writes the user's settings document, updating in place when
// it already exists.
func (d *DriveStore) SaveUserData(ctx context.Context, cred credentials.Credential, userID string, data *credentials.UserData) error {
	svc, err := d.service(ctx, cred)
	if err != nil {
		return err
	}
	folderID, err := d.getOrCreateFolder(ctx, svc)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user data for %s: %w", userID, err)
	}

	fileID, err := d.findUserDataFile(ctx, svc, folderID)
	if err != nil {
		return err
	}
	if fileID != "" {
		_, err = svc.Files.Update(fileID, &drive.File{}).
			Media(bytes.NewReader(content)).
			Context(ctx).Do()
		if err != nil {
			return wrapErr("Drive files.update", err)
		}
		return nil
	}

	_, err = svc.Files.Create(&drive.File{
		Name:    userDataFilename,
		Parents: []string{folderID},
	}).Media(bytes.NewReader(content)).Fields("id").Context(ctx).Do()
	if err != nil {
		return wrapErr("Drive files.create", err)
	}
	return nil
}

func (d *DriveStore) getOrCreateFolder(ctx context.Context, svc *drive.Service) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false", d.folderName)
	list, err := svc.Files.List().Q(query).Spaces("drive").Fields("files(id,name)").Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Drive folder list", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := svc.Files.Create(&drive.File{
		Name:     d.folderName,
		MimeType: "application/vnd.google-apps.folder",
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Drive folder create", err)
	}
	return folder.Id, nil
}

func (d *DriveStore) findUserDataFile(ctx context.Context, svc *drive.Service, folderID string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", folderID, userDataFilename)
	list, err := svc.Files.List().Q(query).Fields("files(id,name)").Context(ctx).Do()
	if err != nil {
		return "", wrapErr("Drive file list", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}
