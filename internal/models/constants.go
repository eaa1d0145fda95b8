package models

const (
	// Metadata keys every index entry carries.
	MetaContent = "content"
	MetaSource  = "source"
	MetaChunkID = "chunk_id"

	ContextSeparator = "\n\n"

	// NoContextAnswer is returned verbatim when retrieval finds nothing,
	// instead of letting the model invent an answer.
	NoContextAnswer = "The provided documents do not contain this information."
)

var (
	SystemPromptTemplate = `You are a document assistant. Answer the question using only the text in the provided context.
If the context does not contain the answer, reply with: "` + NoContextAnswer + `"
Be concise and direct.`

	RAGPromptTemplate = `CONTEXT:
%s

---
QUESTION:
%s

---
ANSWER:`
)
