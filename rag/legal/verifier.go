package legal

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/prompt"
)

// VerdictSchema constrains structured verification output.
var VerdictSchema = llm.Schema{
	Name:        "faithfulness_verdict",
	Description: "Whether the answer is fully supported by the evidence.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result": map[string]any{
				"type":        "string",
				"enum":        []any{string(Faithful), string(NotFaithful)},
				"description": "faithful when every claim is supported and cited",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "The unsupported claim or missing citation; empty when faithful",
			},
		},
		"required":             []any{"result", "reason"},
		"additionalProperties": false,
	},
}

const genericUnfaithfulReason = "the answer contains claims that are not supported by the retrieved evidence"

type verifier struct {
	llm     llm.LanguageModel
	prompts *prompt.Manager
	version string
}

func newVerifier(model llm.LanguageModel, cfg *Config) *verifier {
	return &verifier{
		llm:     model,
		prompts: cfg.prompts,
		version: cfg.PromptVersion,
	}
}

// Verify always returns a verdict. Failures of the model, including missing structured
// output support, yield NotFaithful with a reason naming the limitation. The second
// return value carries the underlying capability error, if any, for accounting.
func (v *verifier) Verify(ctx context.Context, answer string, snippets []evidence.Snippet) (Verdict, error) {
	if strings.TrimSpace(answer) == NoInformationAnswer {
		return Verdict{Result: Faithful}, nil
	}
	if v.llm == nil {
		err := fmt.Errorf("verifier: %w", errorskg.ErrModelUnavailable)
		return unverified(err), err
	}
	text, err := v.prompts.Render(PromptVerify, v.version, map[string]any{
		"answer":   answer,
		"evidence": FormatEvidence(snippets),
	})
	if err != nil {
		return unverified(err), err
	}
	got, err := llm.Decode[Verdict](ctx, v.llm, text, VerdictSchema)
	if err != nil {
		return unverified(err), err
	}
	return normalizeVerdict(got), nil
}

func normalizeVerdict(v Verdict) Verdict {
	v.Reason = strings.TrimSpace(v.Reason)
	switch VerdictResult(strings.ToLower(strings.TrimSpace(string(v.Result)))) {
	case Faithful:
		return Verdict{Result: Faithful, Reason: v.Reason}
	case NotFaithful:
		if v.Reason == "" {
			v.Reason = genericUnfaithfulReason
		}
		return Verdict{Result: NotFaithful, Reason: v.Reason}
	default:
		return Verdict{
			Result: NotFaithful,
			Reason: fmt.Sprintf("verification returned an unknown result %q", v.Result),
		}
	}
}

func unverified(err error) Verdict {
	var reason string
	switch errorskg.Classify(err) {
	case errorskg.KindMalformedOutput:
		if errorskg.Is(err, errorskg.ErrUnsupportedOutputMode) {
			reason = "the language model cannot produce structured output, so the answer could not be verified"
		} else {
			reason = "the verification output was malformed, so the answer could not be verified"
		}
	case errorskg.KindCapabilityTimeout:
		reason = "verification timed out, so the answer could not be verified"
	case errorskg.KindCapabilityUnavailable:
		reason = "the language model was unavailable, so the answer could not be verified"
	default:
		reason = "verification failed, so the answer could not be verified"
	}
	return Verdict{Result: NotFaithful, Reason: reason}
}
