package stage

import (
	"context"
	"sync"

	"seoforge/internal/core"
	"seoforge/internal/images"
)

// Images is S6: requests the three role-tagged images concurrently (hero,
// mid, bottom). Run writes only to ec.ParallelResults.Images, per the
// {S6, S7} parallel group's disjoint-write contract. A failed role is
// left nil; rendering degrades gracefully.
type Images struct {
	client            core.ImageTool
	heroAspectRatio   string
	midAspectRatio    string
	bottomAspectRatio string
}

func NewImages(client core.ImageTool, heroAR, midAR, bottomAR string) *Images {
	return &Images{client: client, heroAspectRatio: heroAR, midAspectRatio: midAR, bottomAspectRatio: bottomAR}
}

func (s *Images) Name() string { return "S6" }

func (s *Images) Run(ctx context.Context, ec *core.ExecutionContext) error {
	if ec.ParallelResults == nil {
		ec.ParallelResults = &core.ParallelResults{}
	}
	headline := ec.StructuredData.Headline
	imageSet := &core.ImageSet{}
	ec.ParallelResults.Images = imageSet

	roles := []struct {
		role        images.Role
		aspectRatio string
		set         **core.GeneratedImage
	}{
		{images.RoleHero, s.heroAspectRatio, &imageSet.Hero},
		{images.RoleMid, s.midAspectRatio, &imageSet.Mid},
		{images.RoleBottom, s.bottomAspectRatio, &imageSet.Bottom},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, r := range roles {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt := images.BuildPrompt(headline, r.role)
			img, err := s.client.GenerateImage(ctx, prompt, r.aspectRatio)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			*r.set = img
		}()
	}
	wg.Wait()

	if firstErr != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, firstErr.Error(), true)
	}
	return nil
}
