package similarity

import (
	"fmt"
	"math"
	"sort"
)

// Cluster is one k-means topic cluster over the corpus's body embeddings,
// used only for the supplemented nearest-cluster lens (spec §9's
// clustering-adjacent math has no dedicated module; this reuses the
// teacher's k-means approach against this domain's single-article corpus
// comparison instead of a multi-article digest edition).
type Cluster struct {
	Label    string
	Centroid []float64
	Members  []string // corpus article IDs
}

// KMeans clusters the corpus's body embeddings into k clusters using
// Euclidean distance, mirroring the teacher's elbow-free fixed-k variant.
func KMeans(corpus []CorpusArticle, k int, maxIterations int) ([]Cluster, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("no corpus articles to cluster")
	}
	if k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive")
	}
	if k > len(corpus) {
		k = len(corpus)
	}

	dim := len(corpus[0].BodyEmbedding)
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), corpus[i*len(corpus)/k].BodyEmbedding...)
	}

	assignments := make([]int, len(corpus))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, article := range corpus {
			nearest := nearestCentroid(article.BodyEmbedding, centroids)
			if nearest != assignments[i] {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		centroids = recomputeCentroids(corpus, assignments, k, dim)
	}

	clusters := make([]Cluster, k)
	for i := range clusters {
		clusters[i] = Cluster{Label: fmt.Sprintf("cluster_%d", i), Centroid: centroids[i]}
	}
	for i, article := range corpus {
		clusterID := assignments[i]
		clusters[clusterID].Members = append(clusters[clusterID].Members, article.ID)
	}

	return clusters, nil
}

func nearestCentroid(embedding []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		d := euclideanDistance(embedding, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func recomputeCentroids(corpus []CorpusArticle, assignments []int, k, dim int) [][]float64 {
	centroids := make([][]float64, k)
	counts := make([]int, k)
	for i := range centroids {
		centroids[i] = make([]float64, dim)
	}
	for i, article := range corpus {
		cid := assignments[i]
		counts[cid]++
		for j, v := range article.BodyEmbedding {
			centroids[cid][j] += v
		}
	}
	for i := range centroids {
		if counts[i] > 0 {
			for j := range centroids[i] {
				centroids[i][j] /= float64(counts[i])
			}
		}
	}
	return centroids
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// NearestClusterLabel finds the cluster whose centroid is nearest to the
// candidate's body embedding, for the supplemented nearest-cluster field on
// SimilarityReport.
func NearestClusterLabel(clusters []Cluster, candidateEmbedding []float64) string {
	if len(clusters) == 0 {
		return ""
	}
	best, bestDist := clusters[0].Label, math.Inf(1)
	for _, c := range clusters {
		d := euclideanDistance(candidateEmbedding, c.Centroid)
		if d < bestDist {
			bestDist = d
			best = c.Label
		}
	}
	return best
}

// sortedMembers is a test/debug helper that returns a cluster's members in
// a stable order.
func sortedMembers(c Cluster) []string {
	members := append([]string(nil), c.Members...)
	sort.Strings(members)
	return members
}
