package models

// ExecutionInput is everything one engine run needs: the question typed into
// the canvas plus the graph to run it through.
type ExecutionInput struct {
	Question    string          `json:"question"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
}

// ExecutionResult is the assembled outcome of one run. RetrievedContext and
// LLMOutput are nil when the corresponding stage never produced a value; that
// is a well-formed "no answer yet" result, not an error.
type ExecutionResult struct {
	Question         string                        `json:"question"`
	RetrievedContext *string                       `json:"retrieved_context"`
	LLMOutput        *string                       `json:"llm_output"`
	Total            int                           `json:"total"`
	Documents        []Document                    `json:"documents"`
	Scores           []float64                     `json:"scores"`
	Timings          map[string]int64              `json:"timings,omitempty"`
	Messages         map[string]map[string]Message `json:"messages,omitempty"`
}

// RetrievalRequest is the retrieval gateway's wire request.
type RetrievalRequest struct {
	Question               string   `json:"question"`
	DatasetIDs             []string `json:"dataset_ids"`
	SimilarityThreshold    float64  `json:"similarity_threshold,omitempty"`
	VectorSimilarityWeight float64  `json:"vector_similarity_weight,omitempty"`
	TopK                   int      `json:"top_k,omitempty"`
	Keyword                bool     `json:"keyword,omitempty"`
	Highlight              bool     `json:"highlight,omitempty"`
}

// RetrievalResult is what the retrieval service returns: the question echoed
// back, ranked documents and their similarity scores.
type RetrievalResult struct {
	Question      string     `json:"question"`
	Total         int        `json:"total"`
	Documents     []Document `json:"documents"`
	Scores        []float64  `json:"scores"`
	RetrievalTime float64    `json:"retrieval_time,omitempty"`
}

// Document is one ranked retrieval hit.
type Document struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata carries per-hit attribution. Similarity is a pointer so a
// genuine 0.0 score can be told apart from "no score reported".
type DocumentMetadata struct {
	DocumentID       string   `json:"document_id,omitempty"`
	DocumentName     string   `json:"document_name,omitempty"`
	KBID             string   `json:"kb_id,omitempty"`
	ChunkID          string   `json:"chunk_id,omitempty"`
	Similarity       *float64 `json:"similarity,omitempty"`
	VectorSimilarity *float64 `json:"vector_similarity,omitempty"`
	TermSimilarity   *float64 `json:"term_similarity,omitempty"`
	Highlight        string   `json:"highlight,omitempty"`
}

// CompletionRequest is the model gateway's request.
type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// LLMModel describes one model available for llm nodes.
type LLMModel struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Provider     string         `json:"provider"`
	Description  string         `json:"description"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}
