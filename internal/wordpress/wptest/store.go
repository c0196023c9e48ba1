// Package wptest provides an in-memory content store for tests of code
// built on the WordPress client.
package wptest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lepinkainen/bmn/internal/wordpress"
)

// Store is a fake content system. Post IDs are assigned from 1 in creation
// order. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	nextID  int
	posts   map[int]*wordpress.Post
	types   map[int]string
	created []Created
	uploads []string

	user    *wordpress.User
	updated []int

	failTitles  map[string]bool
	failUploads map[string]bool
	searchErr   error
	searches    int
}

// Created records one successful CreatePost call.
type Created struct {
	ID       int
	PostType string
	Input    wordpress.PostInput
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		posts:       make(map[int]*wordpress.Post),
		types:       make(map[int]string),
		failTitles:  make(map[string]bool),
		failUploads: make(map[string]bool),
	}
}

// FailCreate makes creating any post titled title fail.
func (s *Store) FailCreate(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTitles[title] = true
}

// FailUpload makes uploads under filename fail.
func (s *Store) FailUpload(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploads[filename] = true
}

// FailSearch makes every custom field search return err.
func (s *Store) FailSearch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchErr = err
}

// Seed stores a post directly and returns its ID.
func (s *Store) Seed(postType, title string, fields map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(postType, wordpress.PostInput{Title: title, Fields: fields})
}

// CreatePost stores the post with its fields flattened as WordPress would return them.
func (s *Store) CreatePost(_ context.Context, postType string, in wordpress.PostInput) (*wordpress.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failTitles[in.Title] {
		return nil, fmt.Errorf("failed to create %s: unexpected status 500", postType)
	}

	id := s.store(postType, in)
	s.created = append(s.created, Created{ID: id, PostType: postType, Input: in})
	post := *s.posts[id]
	return &post, nil
}

func (s *Store) store(postType string, in wordpress.PostInput) int {
	s.nextID++
	id := s.nextID

	fields := make(map[string]any, len(in.Fields)+len(in.Meta))
	for k, v := range in.Meta {
		fields[k] = v
	}
	for k, v := range in.Fields {
		fields[k] = v
	}
	status := in.Status
	if status == "" {
		status = wordpress.StatusPublish
	}

	s.posts[id] = &wordpress.Post{
		ID:            id,
		Title:         in.Title,
		Status:        status,
		Slug:          wordpress.Slugify(in.Title),
		FeaturedMedia: in.FeaturedMedia,
		Fields:        fields,
	}
	s.types[id] = postType
	return id
}

// UploadImageFromURL records the upload and returns a media ID.
func (s *Store) UploadImageFromURL(_ context.Context, imageURL, filename string) (*wordpress.ProcessedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUploads[filename] {
		return nil, fmt.Errorf("failed to download %s: unexpected status 404 downloading image", imageURL)
	}
	s.uploads = append(s.uploads, filename)
	s.nextID++
	src := "https://bmn.test/uploads/" + filename
	return &wordpress.ProcessedImage{ID: s.nextID, ThumbnailRef: src, StandardRef: src, HighResRef: src, OriginalURL: src}, nil
}

// SearchPostsByCustomField returns posts of postType whose field key,
// formatted with %v, equals value.
func (s *Store) SearchPostsByCustomField(_ context.Context, postType, key, value string) ([]wordpress.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches++
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	var out []wordpress.Post
	for id := 1; id <= s.nextID; id++ {
		post, ok := s.posts[id]
		if !ok || s.types[id] != postType {
			continue
		}
		if v, ok := post.Fields[key]; ok && fmt.Sprint(v) == value {
			out = append(out, *post)
		}
	}
	return out, nil
}

// GetPost returns a stored post.
func (s *Store) GetPost(_ context.Context, postType string, id int) (*wordpress.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || s.types[id] != postType {
		return nil, fmt.Errorf("failed to get %s %d: unexpected status 404", postType, id)
	}
	clone := *post
	return &clone, nil
}

// GetMovie returns a stored movie post in its canonical form.
func (s *Store) GetMovie(ctx context.Context, id int) (*wordpress.Movie, error) {
	post, err := s.GetPost(ctx, wordpress.PostTypeMovies, id)
	if err != nil {
		return nil, err
	}
	movie := wordpress.MovieFromPost(post)
	return &movie, nil
}

// Created returns every successful CreatePost call in order.
func (s *Store) Created() []Created {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Created(nil), s.created...)
}

// CreatedOfType returns the successful CreatePost calls for postType.
func (s *Store) CreatedOfType(postType string) []Created {
	var out []Created
	for _, c := range s.Created() {
		if c.PostType == postType {
			out = append(out, c)
		}
	}
	return out
}

// Uploads returns the uploaded filenames in order.
func (s *Store) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

// Searches returns how many custom field searches ran.
func (s *Store) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// UpdatePost replaces the post's title, status, slug, media and the fields
// present in in.
func (s *Store) UpdatePost(_ context.Context, postType string, id int, in wordpress.PostInput) (*wordpress.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || s.types[id] != postType {
		return nil, fmt.Errorf("failed to update %s %d: unexpected status 404", postType, id)
	}
	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Status != "" {
		post.Status = in.Status
	}
	if in.Slug != "" {
		post.Slug = in.Slug
	}
	post.FeaturedMedia = in.FeaturedMedia
	for k, v := range in.Meta {
		post.Fields[k] = v
	}
	for k, v := range in.Fields {
		post.Fields[k] = v
	}
	s.updated = append(s.updated, id)

	clone := *post
	return &clone, nil
}

// Updated returns the IDs passed to successful UpdatePost calls in order.
func (s *Store) Updated() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.updated...)
}

// SetUser sets the user CurrentUser returns.
func (s *Store) SetUser(user *wordpress.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// CurrentUser returns the user set with SetUser.
func (s *Store) CurrentUser(context.Context) (*wordpress.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, fmt.Errorf("failed to get current user: unexpected status 401")
	}
	user := *s.user
	return &user, nil
}

// UploadImage records the upload and returns a media ID.
func (s *Store) UploadImage(ctx context.Context, _ []byte, filename string) (*wordpress.ProcessedImage, error) {
	return s.UploadImageFromURL(ctx, "file://"+filename, filename)
}

// NextExperimentNumber returns one more than the highest stored experiment number.
func (s *Store) NextExperimentNumber(ctx context.Context) int {
	highest := 0
	for _, exp := range s.experiments(ctx) {
		if exp.Number > highest {
			highest = exp.Number
		}
	}
	return highest + 1
}

// SaveExperiment stores exp through the same post body the client sends.
func (s *Store) SaveExperiment(ctx context.Context, exp *wordpress.Experiment) (*wordpress.Experiment, error) {
	in := wordpress.ExperimentInput(exp)

	var (
		post *wordpress.Post
		err  error
	)
	if exp.ID > 0 {
		post, err = s.UpdatePost(ctx, wordpress.PostTypeExperiments, exp.ID, in)
	} else {
		post, err = s.CreatePost(ctx, wordpress.PostTypeExperiments, in)
	}
	if err != nil {
		return nil, err
	}
	return s.GetExperiment(ctx, post.ID)
}

// GetExperiment returns a stored experiment the way Pods serves it: fields
// decoded from JSON and movie relationships expanded to the movie posts.
func (s *Store) GetExperiment(ctx context.Context, id int) (*wordpress.Experiment, error) {
	post, err := s.GetPost(ctx, wordpress.PostTypeExperiments, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := decoded(post.Fields)
	if err != nil {
		return nil, err
	}
	if ids, ok := fields["experiment_movies"].([]any); ok {
		expanded := make([]any, 0, len(ids))
		for _, raw := range ids {
			movieID := int(raw.(float64))
			movie, ok := s.posts[movieID]
			if !ok || s.types[movieID] != wordpress.PostTypeMovies {
				expanded = append(expanded, raw)
				continue
			}
			related, err := decoded(movie.Fields)
			if err != nil {
				return nil, err
			}
			related["ID"] = movieID
			related["post_title"] = movie.Title
			expanded = append(expanded, related)
		}
		fields["experiment_movies"] = expanded
	}
	post.Fields = fields

	exp := wordpress.ExperimentFromPost(post)
	return &exp, nil
}

func (s *Store) experiments(ctx context.Context) []wordpress.Experiment {
	s.mu.Lock()
	var ids []int
	for id := 1; id <= s.nextID; id++ {
		if s.types[id] == wordpress.PostTypeExperiments {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	out := make([]wordpress.Experiment, 0, len(ids))
	for _, id := range ids {
		if exp, err := s.GetExperiment(ctx, id); err == nil {
			out = append(out, *exp)
		}
	}
	return out
}

// decoded round-trips fields through JSON so values have the types a
// decoded API response has.
func decoded(fields map[string]any) (map[string]any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
