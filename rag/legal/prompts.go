package legal

import "github.com/sweetpotato0/legalrag/prompt"

// Prompt names registered in the pipeline's prompt manager.
const (
	PromptTriage    = "triage"
	PromptRewrite   = "rewrite"
	PromptAnswer    = "answer"
	PromptVerify    = "verify"
	PromptRemediate = "remediate"
)

// DefaultPromptVersion is the version of the built-in prompts.
const DefaultPromptVersion = "v1"

// NoInformationAnswer is emitted verbatim when the evidence does not support an answer.
const NoInformationAnswer = "Based on the provided documents, I found no information on this topic."

const triagePromptV1 = `Pergunta: "{{.question}}"

Esta pergunta tem FATOS SUFICIENTES para uma resposta jurídica?

Responda apenas: SIM ou NAO

Resposta:`

const rewritePromptV1 = `You are an expert in Brazilian law who translates everyday language into the formal legal terminology used in statutes.
Rewrite the user's question into {{.max}} search queries optimised for a vector search engine over Brazilian legislation.
Replace popular expressions with their formal legal equivalents as they appear in the law, and keep the queries in Portuguese.
Return ONLY the queries, one per line, with no other text.

--- EXAMPLE ---
ORIGINAL QUESTION:
Me fale sobre venda casada

SEARCH QUERIES:
o que é venda condicionada no código do consumidor
Me fale sobre venda condicionada
proibição de venda condicionada lei
---------------

ORIGINAL QUESTION:
{{.question}}

SEARCH QUERIES:
`

const answerPromptV1 = `You are an assistant specialised in Brazilian legislation. Answer the user's question using ONLY the evidence excerpts below.

Instructions:
1. Answer clearly and objectively, in the language of the question.
2. Every factual claim must carry an inline citation in the form (source label, locator) taken from the evidence block it came from.
3. Do not add facts, articles or citations that are not present in the evidence.
4. If the evidence does not answer the question, reply exactly with: "{{.fallback}}"

EVIDENCE:
{{.evidence}}

QUESTION:
{{.question}}

ANSWER WITH CITATIONS:
`

const verifyPromptV1 = `You are a strict but sensible auditor. Compare the GENERATED ANSWER with the EVIDENCE and decide whether the answer is fully faithful to it.

The answer is "faithful" if and only if:
1. Every factual claim is directly and semantically supported by the evidence.
2. It contains no factual information absent from the evidence.
3. It cites the source of each claim.

The answer is "not_faithful" if it invents any fact or citation, omits citations, or contradicts the evidence.

Flexibility rules:
- Correcting obvious formatting artefacts of the source (de-hyphenation, broken words, punctuation) is allowed and must NOT make the answer not_faithful.
- Judge semantic fidelity, not literal character matching.

EVIDENCE:
{{.evidence}}

GENERATED ANSWER:
{{.answer}}

Return JSON with "result" set to "faithful" or "not_faithful" and "reason" naming the unsupported claim or missing citation when not faithful.
`

const remediatePromptV1 = `You are an expert in Brazilian consumer law helping users rephrase legal questions.

SITUATION:
- The user asked a question but the generated answer was not faithful to the retrieved documents.
- Suggest {{.min}} to {{.max}} reformulations with a better chance of success.

ORIGINAL QUESTION: {{.question}}

CONTEXT FROM RETRIEVED DOCUMENTS:
{{.digest}}

FAILURE REASON: {{.reason}}

DETECTED INTENT: {{.intent}}

INSTRUCTIONS:
1. Work out why the question failed (inadequate terminology, too vague, and so on).
2. Write the reformulations using precise legal terminology, terms that appear in the retrieved documents, and more specific framing when the question was vague.
3. Keep the reformulations in the language of the original question.
4. Return ONLY the suggestions, one per line, without numbering or explanations.

SUGGESTED REFORMULATIONS:
`

// DefaultPrompts returns a manager holding the built-in stage prompts.
func DefaultPrompts() *prompt.Manager {
	m := prompt.NewManager()
	for _, tmpl := range []*prompt.Template{
		prompt.MustTemplate(PromptTriage, DefaultPromptVersion, triagePromptV1),
		prompt.MustTemplate(PromptRewrite, DefaultPromptVersion, rewritePromptV1),
		prompt.MustTemplate(PromptAnswer, DefaultPromptVersion, answerPromptV1),
		prompt.MustTemplate(PromptVerify, DefaultPromptVersion, verifyPromptV1),
		prompt.MustTemplate(PromptRemediate, DefaultPromptVersion, remediatePromptV1),
	} {
		_ = m.Register(tmpl)
	}
	return m
}
