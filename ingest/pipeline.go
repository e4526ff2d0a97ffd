// Package ingest drives the per-file processing pipeline and the polling loop
// that feeds it from the source repository.
package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/media"
	"github.com/camden-git/photosyncbackend/models"
	"github.com/camden-git/photosyncbackend/repository"
	"github.com/camden-git/photosyncbackend/scripting"
	"github.com/camden-git/photosyncbackend/sidecar"
	"github.com/camden-git/photosyncbackend/vcs"
)

// EventSink receives per-file outcomes for realtime broadcast. implementations
// must not block
type EventSink interface {
	PhotoIndexed(path string)
	PhotoFailed(path, reason string)
}

// Pipeline sequences the enrichment stages for one file and commits the
// result. enrichment failures (EXIF, sidecar, tagging, routed script,
// thumbnail) are logged and skipped; only an unresolvable owner or a failed
// final commit abort the file
type Pipeline struct {
	RepoRoot         string
	ThumbnailMaxSize int
	DefaultOwner     string

	photos    repository.PhotoRepositoryInterface
	users     repository.UserRepositoryInterface
	router    *scripting.Router
	tagger    *scripting.Tagger
	processor *media.Processor
	events    EventSink // optional
}

func NewPipeline(
	repoRoot string,
	thumbnailMaxSize int,
	defaultOwner string,
	photos repository.PhotoRepositoryInterface,
	users repository.UserRepositoryInterface,
	router *scripting.Router,
	tagger *scripting.Tagger,
	processor *media.Processor,
	events EventSink,
) *Pipeline {
	return &Pipeline{
		RepoRoot:         repoRoot,
		ThumbnailMaxSize: thumbnailMaxSize,
		DefaultOwner:     defaultOwner,
		photos:           photos,
		users:            users,
		router:           router,
		tagger:           tagger,
		processor:        processor,
		events:           events,
	}
}

// Process runs the full stage sequence for one detected change. the returned
// error means the file stayed unindexed; it never halts the polling loop
func (p *Pipeline) Process(change vcs.FileChange) error {
	absPath := filepath.Join(p.RepoRoot, filepath.FromSlash(change.Path))

	info, err := os.Stat(absPath)
	if err != nil {
		return p.fail(change.Path, fmt.Errorf("original file not found: %w", err))
	}

	// stage 1: resolve owner, falling back to the configured default
	owner, err := p.resolveOwner(change.Author)
	if err != nil {
		return p.fail(change.Path, err)
	}

	// stages 2-3 never fail by contract; trouble yields empty results
	exifData := media.ExtractExif(absPath)
	width, height := media.GetImageDimensions(absPath)

	sidecarMeta, err := sidecar.Parse(absPath)
	if err != nil {
		log.Printf("pipeline: sidecar parse failed for %s, continuing without: %v", change.Path, err)
		sidecarMeta = sidecar.Metadata{Fields: map[string]string{}}
	}

	// stage 4: AI tags, non-fatal
	var aiTags []string
	if p.tagger.Enabled() {
		aiTags, err = p.tagger.Generate(absPath)
		if err != nil {
			log.Printf("pipeline: AI tagging failed for %s, continuing with zero tags: %v", change.Path, err)
			aiTags = nil
		}
	}

	// stage 5: extension-routed custom script, non-fatal. the execution is
	// logged by the executor regardless of how the commit below goes
	if script, ok := p.router.SelectForExtension(filepath.Ext(change.Path)); ok {
		photoID := p.existingPhotoID(change.Path)
		if err := p.router.ExecuteForPhoto(script, absPath, photoID); err != nil {
			log.Printf("pipeline: routed script failed for %s, continuing: %v", change.Path, err)
		}
	}

	// stage 6: thumbnail, non-fatal
	var thumbPath *string
	if img, openErr := media.OpenImage(absPath); openErr != nil {
		log.Printf("pipeline: cannot decode %s for thumbnail, continuing without: %v", change.Path, openErr)
	} else if saved, genErr := p.processor.GenerateThumbnail(img, change.Path, p.ThumbnailMaxSize); genErr != nil {
		log.Printf("pipeline: thumbnail generation failed for %s, continuing without: %v", change.Path, genErr)
	} else {
		thumbPath = &saved
	}

	// stage 7: single-transaction commit
	commit := repository.IngestCommit{
		Path:           change.Path,
		OwnerID:        owner.ID,
		FileSize:       info.Size(),
		LastModified:   change.CommittedAt,
		Width:          width,
		Height:         height,
		ThumbnailPath:  thumbPath,
		Exif:           exifData,
		MetadataFields: sidecarMeta.Fields,
		Tags:           append(append([]string{}, sidecarMeta.Tags...), aiTags...),
	}
	if _, err := p.photos.CommitIngest(commit); err != nil {
		return p.fail(change.Path, fmt.Errorf("commit failed: %w", err))
	}

	log.Printf("pipeline: indexed %s (%s by %s)", change.Path, change.Type, change.Author)
	if p.events != nil {
		p.events.PhotoIndexed(change.Path)
	}
	return nil
}

// resolveOwner maps a commit author to a user, falling back to the configured
// default owner. no match on either is fatal to this file only
func (p *Pipeline) resolveOwner(author string) (*models.User, error) {
	if author != "" {
		user, err := p.users.GetByUsername(author)
		if err == nil {
			return user, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("owner lookup failed for %q: %w", author, err)
		}
	}

	if p.DefaultOwner == "" {
		return nil, fmt.Errorf("no user matches author %q and no default owner configured", author)
	}
	user, err := p.users.GetByUsername(p.DefaultOwner)
	if err != nil {
		return nil, fmt.Errorf("default owner %q could not be resolved: %w", p.DefaultOwner, err)
	}
	return user, nil
}

// existingPhotoID looks up the photo row for a path so script executions can
// reference it; nil for first-time ingestions
func (p *Pipeline) existingPhotoID(path string) *uint {
	photo, err := p.photos.GetByPath(path)
	if err != nil {
		return nil
	}
	return &photo.ID
}

func (p *Pipeline) fail(path string, err error) error {
	log.Printf("pipeline: ERROR processing %s: %v", path, err)
	if p.events != nil {
		p.events.PhotoFailed(path, err.Error())
	}
	return err
}
