// Package browser implements the dialog controller: the state machine behind
// the asset-browse dialog. It owns every piece of mutable dialog state
// (selected source, page, search, loaded assets, error queue, upload form)
// and coordinates fetches against the imgix Management API. The HTTP layer
// only ever calls its methods and reads snapshots.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imgix/contentful/internal/imgix"
	"github.com/imgix/contentful/internal/ixerror"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/models"
	"github.com/imgix/contentful/internal/params"
)

// State names the dialog's observable condition.
type State string

const (
	StateNoAPIKey        State = "noApiKey"
	StateLoadingSources  State = "loadingSources"
	StateSourceSelection State = "sourceSelection"
	StateLoading         State = "loading"
	StatePopulated       State = "populated"
	StateEmpty           State = "empty"
	StateUploading       State = "uploading"
)

// Client is the slice of the imgix API client the controller needs; the
// tests substitute a fake.
type Client interface {
	ListSources(ctx context.Context) []models.Source
	FetchAssetPage(ctx context.Context, sourceID, query string) (imgix.AssetPage, error)
	Upload(ctx context.Context, sourceID, path string, data []byte) error
	InvalidateAssetPage(sourceID, query string)
}

// Moderator screens upload bytes. Optional; nil disables screening.
type Moderator interface {
	ScreenUpload(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error)
}

// DefaultDebounce is the leading-edge interval that coalesces rapid page
// changes and search submissions.
const DefaultDebounce = time.Second

// Options configures a Controller.
type Options struct {
	Client    Client
	Moderator Moderator
	Logger    *logging.Logger
	Verified  bool
	// Invocation carries the previously selected asset, if any, for source
	// pre-selection.
	Invocation *models.SelectedAsset
	// Debounce overrides DefaultDebounce; zero keeps the default, negative
	// disables debouncing.
	Debounce time.Duration
}

// Controller is the dialog state machine. All methods are safe for
// concurrent use; the mutex is never held across a network call, and every
// fetch carries a generation tag so stale responses are discarded instead of
// overwriting newer state.
type Controller struct {
	client    Client
	moderator Moderator
	logger    *logging.Logger
	debounce  time.Duration

	mu             sync.Mutex
	verified       bool
	started        bool
	loadingSources bool
	loading        bool
	sources        []models.Source
	selectedSource *models.Source
	page           models.PageInfo
	searchTerm     string
	isSearching    bool
	assets         []models.Asset
	errors         []*ixerror.Error
	notifications  []models.Notification
	uploadForm     *models.UploadForm
	showUpload     bool
	isUploading    bool
	invocation     *models.SelectedAsset

	fetchGen       string
	lastPageChange time.Time
	lastSearch     time.Time
}

// New creates a controller. Call Start before anything else.
func New(opts Options) *Controller {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	} else if debounce < 0 {
		debounce = 0
	}

	return &Controller{
		client:     opts.Client,
		moderator:  opts.Moderator,
		logger:     opts.Logger,
		debounce:   debounce,
		verified:   opts.Verified,
		invocation: opts.Invocation,
		assets:     []models.Asset{},
		errors:     []*ixerror.Error{},
	}
}

// Start loads the source list, unless the installation's API key was never
// verified, in which case the dialog is dead on arrival with InvalidAPIKey
// queued. When the invocation names a source that still exists it is
// pre-selected and its first page fetched.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true

	if !c.verified {
		c.errors = []*ixerror.Error{ixerror.New(ixerror.InvalidAPIKey)}
		c.mu.Unlock()
		return
	}
	c.loadingSources = true
	c.mu.Unlock()

	sources := c.client.ListSources(ctx)

	c.mu.Lock()
	c.loadingSources = false
	c.sources = sources
	if len(sources) == 0 {
		c.errors = append(c.errors, ixerror.New(ixerror.NoSources))
		c.mu.Unlock()
		return
	}

	var preselected *models.Source
	if c.invocation != nil && c.invocation.SelectedSourceID != "" {
		for i := range sources {
			if sources[i].ID == c.invocation.SelectedSourceID {
				preselected = &sources[i]
				break
			}
		}
	}
	if preselected == nil {
		c.mu.Unlock()
		return
	}

	source := *preselected
	c.selectedSource = &source
	c.page = models.PageInfo{}
	c.mu.Unlock()

	c.refresh(ctx, imgix.ListQuery(0), false)
}

// SelectSource chooses a source by id, resets pagination and search state,
// clears the error queue, and fetches the first page.
func (c *Controller) SelectSource(ctx context.Context, sourceID string) bool {
	c.mu.Lock()
	var found *models.Source
	for i := range c.sources {
		if c.sources[i].ID == sourceID {
			found = &c.sources[i]
			break
		}
	}
	if found == nil {
		c.mu.Unlock()
		return false
	}

	source := *found
	c.selectedSource = &source
	c.page = models.PageInfo{}
	c.searchTerm = ""
	c.isSearching = false
	c.errors = c.errors[:0]
	c.mu.Unlock()

	c.refresh(ctx, imgix.ListQuery(0), false)
	return true
}

// ChangePage moves to a 0-based page index and refetches. Calls inside the
// debounce interval are coalesced into the first one; nothing is refetched
// while a search is active.
func (c *Controller) ChangePage(ctx context.Context, index int) {
	c.mu.Lock()
	now := time.Now()
	if c.debounce > 0 && now.Sub(c.lastPageChange) < c.debounce {
		c.mu.Unlock()
		return
	}
	c.lastPageChange = now

	if c.selectedSource == nil || index < 0 {
		c.mu.Unlock()
		return
	}
	c.page.CurrentIndex = index
	searching := c.isSearching
	c.mu.Unlock()

	if searching {
		return
	}
	c.refresh(ctx, imgix.ListQuery(index), false)
}

// Search submits a search term against the selected source. The page resets
// to 0. An empty term re-issues the default listing instead of a filter
// query. Debounced the same way as ChangePage.
func (c *Controller) Search(ctx context.Context, term string) {
	c.mu.Lock()
	now := time.Now()
	if c.debounce > 0 && now.Sub(c.lastSearch) < c.debounce {
		c.mu.Unlock()
		return
	}
	c.lastSearch = now

	if c.selectedSource == nil {
		c.mu.Unlock()
		return
	}
	c.searchTerm = term
	c.page.CurrentIndex = 0
	c.isSearching = term != ""
	c.mu.Unlock()

	if term == "" {
		c.refresh(ctx, imgix.ListQuery(0), false)
		return
	}
	c.refresh(ctx, imgix.SearchQuery(term, 0), true)
}

// DismissErrors pops n entries off the head of the error queue. n below 1
// pops one.
func (c *Controller) DismissErrors(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > len(c.errors) {
		n = len(c.errors)
	}
	c.errors = c.errors[n:]
}

// ApplyParams runs the add/remove parameter algebra against an asset URL and
// returns the updated URL with its re-derived parameter record. When the URL
// belongs to one of the currently loaded assets, that asset is updated in
// place so a later Submit carries the transformation.
func (c *Controller) ApplyParams(src string, updates params.Updates, action params.Action) (string, map[string]params.Value) {
	base, p := params.SplitURL(src)
	reduced := params.Reduce(p, updates, action)
	newSrc := params.JoinURL(base, reduced)
	record := params.GroupByKey(reduced)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.assets {
		if c.assets[i].Src == src {
			c.assets[i].Src = newSrc
			c.assets[i].ImgixParams = record
			break
		}
	}
	return newSrc, record
}

// Submit resolves the dialog with the asset whose Src matches. The returned
// value is what the host persists into the content-entry field.
func (c *Controller) Submit(src string) (*models.SelectedAsset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedSource == nil {
		return nil, false
	}
	for _, asset := range c.assets {
		if asset.Src != src {
			continue
		}
		_, p := params.SplitURL(asset.Src)
		asset.ImgixParams = params.GroupByKey(p)
		return &models.SelectedAsset{
			Asset:            asset,
			SelectedSourceID: c.selectedSource.ID,
		}, true
	}
	return nil, false
}

// refresh issues an asset-page fetch for the currently selected source. The
// generation tag and the source id captured at issue time guard against a
// stale response landing after the user moved on.
func (c *Controller) refresh(ctx context.Context, query string, searchMode bool) {
	c.mu.Lock()
	if c.selectedSource == nil {
		c.mu.Unlock()
		return
	}
	source := *c.selectedSource
	gen := uuid.NewString()
	c.fetchGen = gen
	c.loading = true
	c.mu.Unlock()

	page, err := c.client.FetchAssetPage(ctx, source.ID, query)
	c.onFetchResolved(gen, source, searchMode, page, err)
}

// onFetchResolved folds a completed fetch into state, unless the response is
// stale (wrong generation, or the selection changed while it was in flight).
func (c *Controller) onFetchResolved(gen string, source models.Source, searchMode bool, page imgix.AssetPage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchGen != gen {
		return
	}
	if c.selectedSource == nil || c.selectedSource.ID != source.ID {
		return
	}

	c.loading = false
	c.isSearching = false

	if err != nil {
		if c.logger != nil {
			c.logger.Warn("asset fetch failed", logging.WithField("source", source.ID),
				logging.WithField("error", err.Error()))
		}
		c.assets = []models.Asset{}
		c.page.TotalPageCount = 0
		c.queueEmptyError(source, searchMode)
		return
	}

	c.page.TotalPageCount = imgix.TotalPageCount(page.TotalRecords)

	if len(page.Assets) == 0 {
		c.assets = []models.Asset{}
		c.queueEmptyError(source, searchMode)
		return
	}

	// Data arrived, so whatever emptiness errors were queued are satisfied.
	if len(c.errors) > 0 {
		c.errors = c.errors[:0]
	}
	c.assets = imgix.QualifyAssetURLs(page.Assets, source.Domain)
}

// queueEmptyError picks the taxonomy entry for a zero-asset outcome: search
// misses are dismissable, empty sources are not, and web folders get their
// own wording.
func (c *Controller) queueEmptyError(source models.Source, searchMode bool) {
	switch {
	case searchMode:
		c.errors = append(c.errors, ixerror.New(ixerror.NoSearchResults))
	case source.Type == models.SourceTypeWebFolder:
		c.errors = append(c.errors, ixerror.New(ixerror.NoOriginAssetsWebFolder))
	default:
		c.errors = append(c.errors, ixerror.New(ixerror.NoOriginAssets))
	}
}
