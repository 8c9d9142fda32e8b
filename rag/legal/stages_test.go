package legal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sweetpotato0/legalrag/evidence"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/pkg/logging"
)

func TestDeterministicCheck(t *testing.T) {
	cases := []struct {
		question string
		needs    bool
		decided  bool
	}{
		{"O que é venda casada?", false, true},
		{"Me fale sobre propaganda enganosa?", false, true},
		{"Como funciona o direito de arrependimento?", false, true},
		{"Cobrar taxa de entrega é permitido?", false, true},
		{"Quais são os direitos básicos do consumidor?", false, true},
		{"O preço na placa era diferente do caixa", false, true},
		{"Na placa estava R$10 e no caixa cobraram R$15", false, true},
		{"Foi anunciado por R$100 mas me cobraram R$120", false, true},
		{"Comprei um produto defeituoso há 10 dias", false, true},
		{"Comprei uma TV com defeito, posso trocar?", false, true},
		{"A promoção era válida mas a loja recusa vender", false, true},
		{"É permitido?", false, true},
		{"O que é?", false, true},
		{"Defina?", false, true},
		{"Posso processar?", true, true},
		{"  posso processar  ", true, true},
		{"Tenho direito?", true, true},
		{"O que fazer?", true, true},
		{"É legal?", true, true},
		{"Quais são meus direitos?", true, true},
		{"Isso pode dar problema?", true, true},
		{"Isso é certo?", true, true},
		{"Quais são os direitos do consumidor?", false, false},
		{"O preço estava diferente no site", false, false},
		{"Meu vizinho faz barulho toda noite depois das dez", false, false},
	}
	for _, tc := range cases {
		for i := 0; i < 2; i++ {
			needs, decided := DeterministicCheck(tc.question, 15)
			if needs != tc.needs || decided != tc.decided {
				t.Fatalf("DeterministicCheck(%q) = (%v, %v), want (%v, %v)", tc.question, needs, decided, tc.needs, tc.decided)
			}
		}
	}
}

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
	}{
		{"O que é venda casada?", IntentConsumer},
		{"A loja pode recusar a troca?", IntentConsumer},
		{"O que diz a constituição sobre liberdade?", IntentConstitutional},
		{"A igualdade vale para o preço do ingresso?", IntentConsumer},
		{"Como funciona a prescrição?", IntentConsumer},
		{"", IntentUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyIntent(tc.question); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", tc.question, got, tc.want)
		}
	}
}

func TestTriageModelFallback(t *testing.T) {
	question := "Meu vizinho faz barulho toda noite depois das dez"
	cases := []struct {
		name   string
		model  *stubLLM
		needs  bool
		conf   Confidence
		method TriageMethod
		err    bool
	}{
		{"no", &stubLLM{text: "NAO"}, true, ConfidenceMedium, MethodLLM, false},
		{"accented no", &stubLLM{text: " não."}, true, ConfidenceMedium, MethodLLM, false},
		{"yes", &stubLLM{text: "Sim, há fatos suficientes."}, false, ConfidenceMedium, MethodLLM, false},
		{"yes after contraction", &stubLLM{text: "Há fatos suficientes no relato: SIM"}, false, ConfidenceMedium, MethodLLM, false},
		{"yes after contraction with period", &stubLLM{text: "Os fatos descritos no enunciado bastam. SIM."}, false, ConfidenceMedium, MethodLLM, false},
		{"english yes", &stubLLM{text: "Yes."}, false, ConfidenceMedium, MethodLLM, false},
		{"english no", &stubLLM{text: " NO "}, true, ConfidenceMedium, MethodLLM, false},
		{"contraction only", &stubLLM{text: "depende do que consta no contrato"}, false, ConfidenceLow, MethodFallback, true},
		{"unparseable", &stubLLM{text: "talvez"}, false, ConfidenceLow, MethodFallback, true},
		{"timeout", &stubLLM{err: errorskg.ErrModelTimeout}, false, ConfidenceLow, MethodFallback, true},
	}
	for _, tc := range cases {
		s := newSupervisor(tc.model, defaultConfigWithPrompts())
		got, err := s.Triage(context.Background(), question)
		if (err != nil) != tc.err {
			t.Fatalf("%s: unexpected error state %v", tc.name, err)
		}
		if got.NeedsClarification != tc.needs || got.Confidence != tc.conf || got.Method != tc.method {
			t.Fatalf("%s: unexpected triage %+v", tc.name, got)
		}
		if !strings.Contains(tc.model.lastPrompt(), question) {
			t.Fatalf("%s: triage prompt missing question", tc.name)
		}
	}
}

func TestTriageBlankQuestion(t *testing.T) {
	model := &stubLLM{text: "SIM"}
	got, err := newSupervisor(model, defaultConfigWithPrompts()).Triage(context.Background(), " \n ")
	if err != nil {
		t.Fatalf("Triage error: %v", err)
	}
	want := TriageResult{Intent: IntentUnknown, NeedsClarification: true, Confidence: ConfidenceLow, Method: MethodDeterministic}
	if got != want {
		t.Fatalf("Triage = %+v, want %+v", got, want)
	}
	if model.callCount() != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestParseQueries(t *testing.T) {
	out := "1. venda condicionada\n2) venda condicionada\n- proibição de venda condicionada\n\n* proibição de venda condicionada\n\t3 artigo 39\nquarta consulta"
	want := []string{"venda condicionada", "proibição de venda condicionada", "artigo 39"}
	if diff := cmp.Diff(want, ParseQueries(out, 3)); diff != "" {
		t.Fatalf("ParseQueries mismatch (-want +got):\n%s", diff)
	}
	if got := ParseQueries("única", 3); len(got) != 1 {
		t.Fatalf("expected fewer lines to be accepted, got %v", got)
	}
	if got := ParseQueries("\n \n1.\n", 3); len(got) != 0 {
		t.Fatalf("expected no queries, got %v", got)
	}
}

func TestRewriterRejectsEmptyOutput(t *testing.T) {
	r := newRewriter(&stubLLM{text: "\n\n"}, defaultConfigWithPrompts())
	if _, err := r.Expand(context.Background(), "q"); !errors.Is(err, errorskg.ErrMalformedOutput) {
		t.Fatalf("expected malformed output, got %v", err)
	}
}

func TestParseSuggestions(t *testing.T) {
	out := "Primeira sugestão\n- bullet\n* star\n• dot\n\n2) Segunda sugestão\nPrimeira sugestão\nTerceira\nQuarta\nQuinta\nSexta"
	want := []string{"Primeira sugestão", "Segunda sugestão", "Terceira", "Quarta", "Quinta"}
	if diff := cmp.Diff(want, ParseSuggestions(out, 5)); diff != "" {
		t.Fatalf("ParseSuggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestCannedSuggestions(t *testing.T) {
	if diff := cmp.Diff(tiedSaleSuggestions, CannedSuggestions("Isso é VENDA CASADA?", IntentConsumer)); diff != "" {
		t.Fatalf("tied sale mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(advertisingSuggestions, CannedSuggestions("publicidade infantil", IntentConsumer)); diff != "" {
		t.Fatalf("advertising mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(constitutionalSuggestions, CannedSuggestions("liberdade de culto", IntentConstitutional)); diff != "" {
		t.Fatalf("constitutional mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(genericSuggestions, CannedSuggestions("prazo de garantia", IntentConsumer)); diff != "" {
		t.Fatalf("generic mismatch (-want +got):\n%s", diff)
	}
}

func TestRemediatorTopsUpShortOutput(t *testing.T) {
	r := newRemediator(&stubLLM{text: "Artigo 39 do CDC"}, defaultConfigWithPrompts())
	got, err := r.Suggest(context.Background(), "venda casada é crime", nil, "invented article", IntentConsumer)
	if !errors.Is(err, errorskg.ErrMalformedOutput) {
		t.Fatalf("expected malformed output error, got %v", err)
	}
	want := []string{"Artigo 39 do CDC", "O que é venda condicionada?", "Práticas abusivas no código do consumidor"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestRemediatorDigest(t *testing.T) {
	model := &stubLLM{text: "a\nb\nc"}
	r := newRemediator(model, defaultConfigWithPrompts())
	long := strings.Repeat("x", 300)
	snippets := []evidence.Snippet{
		{Text: long, SourceLabel: "CDC", Locator: "Art. 39"},
		{Text: "segundo", SourceLabel: "CDC", Locator: "Art. 39"},
		{Text: "terceiro", SourceLabel: "CF"},
	}
	if _, err := r.Suggest(context.Background(), "q", snippets, "missing citation", IntentConsumer); err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	p := model.lastPrompt()
	for _, want := range []string{
		"Locators found: Art. 39\n",
		"- CDC: Art. 39 - " + strings.Repeat("x", 200) + "...",
		"- CF: N/A - terceiro...",
		"FAILURE REASON: missing citation",
		"DETECTED INTENT: consumer",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("remediation prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, strings.Repeat("x", 201)) {
		t.Fatalf("preview not truncated to 200 runes")
	}
}

func TestRemediationMessageOmitsRejectedAnswer(t *testing.T) {
	rejected := "O Art. 99 garante reembolso em dobro."
	msg := remediationMessage("the claim '"+rejected+"' is unsupported", rejected, []string{"a", "b", "c"})
	if strings.Contains(msg, rejected) {
		t.Fatalf("message leaks rejected answer: %q", msg)
	}
	if !strings.Contains(msg, "- a\n- b\n- c") {
		t.Fatalf("message missing suggestions: %q", msg)
	}
	if !strings.HasPrefix(msg, "Não consegui gerar uma resposta confiável") || !strings.Contains(msg, "Tente reformular") {
		t.Fatalf("message not in Portuguese: %q", msg)
	}

	withReason := remediationMessage("artigo inexistente", "", []string{"a"})
	if !strings.Contains(withReason, "(Motivo: artigo inexistente)") {
		t.Fatalf("reason not reported: %q", withReason)
	}
}

func TestDefaultTemplatesArePortuguese(t *testing.T) {
	if !strings.Contains(defaultDisclaimer, "**Aviso Legal:**") || !strings.Contains(defaultDisclaimer, "assessoria jurídica formal") {
		t.Fatalf("unexpected disclaimer %q", defaultDisclaimer)
	}
	if !strings.HasPrefix(defaultClarification, "Para responder com precisão") {
		t.Fatalf("unexpected clarification template %q", defaultClarification)
	}
}

func TestApplyDisclaimerIsIdempotent(t *testing.T) {
	once := ApplyDisclaimer("resposta", defaultDisclaimer)
	twice := ApplyDisclaimer(once, defaultDisclaimer)
	if once != twice {
		t.Fatalf("disclaimer duplicated:\n%s", twice)
	}
	if strings.Count(twice, defaultDisclaimer) != 1 {
		t.Fatalf("expected one disclaimer")
	}
	if got := ApplyDisclaimer("", defaultDisclaimer); got != defaultDisclaimer {
		t.Fatalf("unexpected disclaimer-only answer %q", got)
	}
}

func TestRetrieveMergesInQueryOrder(t *testing.T) {
	r := newScriptedRetriever(map[string][]evidence.Snippet{
		"a": {{Text: "1", SourceLabel: "A", Locator: "x"}, {Text: "2", SourceLabel: "A", Locator: "y"}, {Text: "extra"}},
		"b": {{Text: "2", SourceLabel: "B"}, {Text: "3", SourceLabel: "B"}},
		"c": {{Text: "4"}},
	})
	r.fail = map[string]bool{"c": true}
	cfg := defaultConfigWithPrompts()
	e := newEvidenceRetriever(r, cfg, logging.Discard())

	got := e.Retrieve(context.Background(), []string{"a", "b", "c"})
	want := []evidence.Snippet{
		{Text: "1", SourceLabel: "A", Locator: "x"},
		{Text: "2", SourceLabel: "A", Locator: "y"},
		{Text: "3", SourceLabel: "B", Locator: evidence.UnknownLocator},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged evidence mismatch (-want +got):\n%s", diff)
	}
	if e.Retrieve(context.Background(), nil) != nil {
		t.Fatalf("expected no evidence for no queries")
	}
}

func TestSearchQueriesDefaultsToQuestion(t *testing.T) {
	st := &State{OriginalQuestion: "pergunta"}
	if diff := cmp.Diff([]string{"pergunta"}, searchQueries(st)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	st.SearchQueries = []string{"a", "b"}
	if diff := cmp.Diff([]string{"a", "b"}, searchQueries(st)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeVerdict(t *testing.T) {
	cases := []struct {
		in   Verdict
		want Verdict
	}{
		{Verdict{Result: " Faithful "}, Verdict{Result: Faithful}},
		{Verdict{Result: NotFaithful, Reason: "  missing citation "}, Verdict{Result: NotFaithful, Reason: "missing citation"}},
		{Verdict{Result: NotFaithful}, Verdict{Result: NotFaithful, Reason: genericUnfaithfulReason}},
		{Verdict{Result: "fiel"}, Verdict{Result: NotFaithful, Reason: `verification returned an unknown result "fiel"`}},
	}
	for _, tc := range cases {
		if got := normalizeVerdict(tc.in); got != tc.want {
			t.Errorf("normalizeVerdict(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestVerifierAcceptsFallbackSentenceWithoutModel(t *testing.T) {
	model := &stubLLM{raw: `{"result":"not_faithful","reason":"x"}`}
	got, err := newVerifier(model, defaultConfigWithPrompts()).Verify(context.Background(), NoInformationAnswer, nil)
	if err != nil || got.Result != Faithful {
		t.Fatalf("expected faithful verdict, got %+v, %v", got, err)
	}
	if model.callCount() != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestAnswererSkipsModelWithoutEvidence(t *testing.T) {
	model := &stubLLM{text: "something"}
	got, err := newAnswerer(model, defaultConfigWithPrompts()).Answer(context.Background(), "q", nil)
	if err != nil || got != NoInformationAnswer {
		t.Fatalf("expected fallback sentence, got %q, %v", got, err)
	}
	if model.callCount() != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestFormatEvidence(t *testing.T) {
	got := FormatEvidence([]evidence.Snippet{
		{Text: " texto um ", SourceLabel: "CDC", Locator: "Art. 6"},
		{Text: "texto dois"},
	})
	want := "[1] CDC — Art. 6 — texto um\n\n[2] unknown source — N/A — texto dois"
	if got != want {
		t.Fatalf("FormatEvidence = %q, want %q", got, want)
	}
}
