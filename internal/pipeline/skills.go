package pipeline

import (
	"strings"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// skillEntry binds a skill label to the substrings that attribute it.
type skillEntry struct {
	label    string
	triggers []string
}

// skillVocabulary is the fixed skill-extraction vocabulary. Order matters
// only for determinism of the returned slice; matching is a case-folded
// substring test against title, abstract, and venue.
var skillVocabulary = []skillEntry{
	{"Machine Learning", []string{"machine learning", "ml", "neural network", "deep learning"}},
	{"Deep Learning", []string{"deep learning", "neural network", "cnn", "rnn", "transformer"}},
	{"Computer Vision", []string{"computer vision", "image processing", "object detection", "segmentation"}},
	{"Natural Language Processing", []string{"nlp", "natural language", "text processing", "language model"}},
	{"Reinforcement Learning", []string{"reinforcement learning", "rl", "policy gradient", "q-learning"}},
	{"Distributed Systems", []string{"distributed", "cluster", "parallel computing", "scalability"}},
	{"Quantum Computing", []string{"quantum", "qubit", "quantum algorithm", "quantum machine learning"}},
	{"Robotics", []string{"robot", "robotics", "autonomous", "control system"}},
	{"Cybersecurity", []string{"security", "cryptography", "encryption", "privacy"}},
	{"PyTorch", []string{"pytorch", "torch"}},
	{"TensorFlow", []string{"tensorflow", "tf"}},
	{"Python", []string{"python"}},
	{"CUDA", []string{"cuda", "gpu computing"}},
}

// researchAreaVocabulary maps broader research areas the same way.
var researchAreaVocabulary = []skillEntry{
	{"Artificial Intelligence", []string{"artificial intelligence", "machine learning", "deep learning", "neural"}},
	{"Computer Systems", []string{"operating system", "distributed", "file system", "virtualization"}},
	{"Computer Networks", []string{"network", "protocol", "routing", "sdn"}},
	{"Theory of Computation", []string{"complexity", "algorithm", "approximation", "combinatorial"}},
	{"Security and Privacy", []string{"security", "cryptography", "privacy", "adversarial"}},
	{"Human-Computer Interaction", []string{"user study", "interaction design", "usability", "accessibility"}},
}

// ExtractSkills returns the skill labels whose trigger substrings occur in
// any of the papers' searchable text. The result preserves vocabulary order
// and contains no duplicates.
func ExtractSkills(papers []*domain.Paper) []string {
	return matchVocabulary(papers, skillVocabulary)
}

// ExtractResearchAreas returns the research areas matched by the papers'
// searchable text, in vocabulary order without duplicates.
func ExtractResearchAreas(papers []*domain.Paper) []string {
	return matchVocabulary(papers, researchAreaVocabulary)
}

func matchVocabulary(papers []*domain.Paper, vocabulary []skillEntry) []string {
	if len(papers) == 0 {
		return nil
	}

	texts := make([]string, 0, len(papers))
	for _, paper := range papers {
		texts = append(texts, paper.SearchText())
	}

	var matched []string
	for _, entry := range vocabulary {
		if anyTextContains(texts, entry.triggers) {
			matched = append(matched, entry.label)
		}
	}
	return matched
}

func anyTextContains(texts []string, triggers []string) bool {
	for _, text := range texts {
		for _, trigger := range triggers {
			if strings.Contains(text, trigger) {
				return true
			}
		}
	}
	return false
}
