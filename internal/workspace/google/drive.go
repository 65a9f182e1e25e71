package google

import (
	"context"

	"google.golang.org/api/drive/v3"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

// DriveService implements workspace.Drive on the Drive API.
type DriveService struct {
	svc *drive.Service
}

// ListFiles fetches recently modified files.
func (d *DriveService) ListFiles(ctx context.Context, maxResults int) ([]workspace.DriveFile, error) {
	resp, err := d.svc.Files.List().
		PageSize(int64(maxResults)).
		OrderBy("modifiedTime desc").
		Fields("files(id,name,mimeType,modifiedTime,webViewLink)").
		Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("Drive files.list", err)
	}

	files := make([]workspace.DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, workspace.DriveFile{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			WebViewLink:  f.WebViewLink,
		})
	}
	return files, nil
}
