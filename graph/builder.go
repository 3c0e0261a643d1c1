package graph

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/zap"
)

// GraphVersion is the persisted schema version.
const GraphVersion = "1.1"

// Builder computes compatibility links between all phrase pairs and prunes
// them to a bounded out-degree. It holds no cross-call state; rebuilding from
// the same input yields the same graph.
type Builder struct {
	log     *zap.SugaredLogger
	scorer  *Scorer
	tun     phrasegraph.Tunables
	workers int
}

// NewBuilder builds a new Builder.
func NewBuilder(log *zap.SugaredLogger, tun phrasegraph.Tunables) *Builder {
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	return &Builder{
		log:     log,
		scorer:  NewScorer(tun),
		tun:     tun,
		workers: workers,
	}
}

var Options = NewBuilder

// Build assigns links to every phrase and returns the assembled graph.
//
// The pass is O(n^2) in phrase count, which is fine for a personal collection
// (low thousands of phrases). The outer loop is partitioned across workers;
// each worker only writes its own phrases' links, so no locking is needed.
func (b *Builder) Build(collectionPath string, phrases []*phrasegraph.PhraseNode) *phrasegraph.PhraseGraph {
	next := nextInTrack(phrases)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				phrases[i].Links = b.linksFor(phrases[i], phrases, next)
			}
		}()
	}
	for i := range phrases {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	total := 0
	for _, p := range phrases {
		total += len(p.Links)
	}
	b.log.Infow("built phrase graph", "phrases", len(phrases), "links", total)

	return &phrasegraph.PhraseGraph{
		Version:        GraphVersion,
		CreatedAt:      time.Now().Format(time.RFC3339),
		CollectionPath: collectionPath,
		Nodes:          phrases,
	}
}

// linksFor scores p1 against every other phrase and keeps the best
// candidates. The original-sequence successor is always included and sorts
// first, so the degree cap can never drop it.
func (b *Builder) linksFor(p1 *phrasegraph.PhraseNode, phrases []*phrasegraph.PhraseNode, next map[string]string) []phrasegraph.PhraseLink {
	candidates := make([]phrasegraph.PhraseLink, 0, b.tun.MaxLinksPerPhrase)

	for _, p2 := range phrases {
		if p2.ID == p1.ID {
			continue
		}

		isOriginal := next[p1.ID] == p2.ID
		weight, scores := b.scorer.Weight(p1, p2)
		if !isOriginal && weight < b.tun.MinLinkWeight {
			continue
		}

		candidates = append(candidates, phrasegraph.PhraseLink{
			TargetID:            p2.ID,
			Weight:              weight,
			IsOriginalSequence:  isOriginal,
			SuggestedTransition: b.scorer.SuggestTransition(weight, p2.Energy-p1.Energy),
			TempoScore:          scores.Tempo,
			KeyScore:            scores.Key,
			EnergyScore:         scores.Energy,
			SpectralScore:       scores.Spectral,
		})
	}

	// Stable sort keeps insertion order for equal weights, which makes
	// rebuilds on identical input byte-identical.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].IsOriginalSequence != candidates[j].IsOriginalSequence {
			return candidates[i].IsOriginalSequence
		}
		return candidates[i].Weight > candidates[j].Weight
	})
	if len(candidates) > b.tun.MaxLinksPerPhrase {
		candidates = candidates[:b.tun.MaxLinksPerPhrase]
	}
	return candidates
}

// nextInTrack maps each phrase id to the id of the next phrase in the same
// source track, by TrackIndex order. Built once so the pairwise pass can
// answer "is this the original sequence?" in O(1).
func nextInTrack(phrases []*phrasegraph.PhraseNode) map[string]string {
	byTrack := make(map[string][]*phrasegraph.PhraseNode)
	for _, p := range phrases {
		byTrack[p.SourceTrack] = append(byTrack[p.SourceTrack], p)
	}

	next := make(map[string]string, len(phrases))
	for _, track := range byTrack {
		sort.Slice(track, func(i, j int) bool {
			return track[i].TrackIndex < track[j].TrackIndex
		})
		for i := 0; i+1 < len(track); i++ {
			next[track[i].ID] = track[i+1].ID
		}
	}
	return next
}
