package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"timelines/internal/config"
	"timelines/internal/nlp"
	"timelines/internal/services"
	"timelines/internal/testsupport"
	"timelines/internal/timex"
)

const yearPage1969 = `<html><body><div id="mw-content-text">
<div class="mw-heading mw-heading2"><h2 id="Events">Events</h2></div>
<div class="mw-heading mw-heading3"><h3 id="July">July</h3></div>
<ul>
<li><a href="/wiki/July_16">July 16</a> – <a href="/wiki/Apollo_11">Apollo 11</a> lifts off.</li>
<li><a href="/wiki/July_20">July 20</a> – <a href="/wiki/Neil_Armstrong">Neil Armstrong</a> walks on the <a href="/wiki/Moon">Moon</a>.[4]</li>
</ul>
<div class="mw-heading mw-heading3"><h3 id="August">August</h3></div>
<ul><li><a href="/wiki/August_15">August 15</a> – <a href="/wiki/Woodstock">Woodstock</a> opens.</li></ul>
</div></body></html>`

const dayPageJuly20 = `<html><body>
<div class="mw-heading mw-heading2"><h2 id="Events">Events</h2></div>
<ul>
<li><a href="/wiki/1881">1881</a> – Sitting Bull surrenders.</li>
<li><a href="/wiki/1969">1969</a> – <a href="/wiki/Apollo_11">Apollo 11</a> lands; <a href="/wiki/Neil_Armstrong">Neil Armstrong</a> steps onto the <a href="/wiki/Moon">Moon</a>.</li>
</ul>
<div class="mw-heading mw-heading2"><h2 id="Births">Births</h2></div>
</body></html>`

const titlesResponse = `{
  "batchcomplete": "",
  "query": {
    "pages": {
      "1": {"pageid": 1, "ns": 0, "title": "July 20", "pageprops": {"wikibase_item": "Q2707"}},
      "2": {"pageid": 2, "ns": 0, "title": "Neil Armstrong", "pageprops": {"wikibase_item": "Q1615"}},
      "3": {"pageid": 3, "ns": 0, "title": "Moon", "pageprops": {"wikibase_item": "Q405"}}
    }
  }
}`

const moonCaptions = `1
00:00:01,000 --> 00:00:04,000
On July 20 1969 Neil Armstrong

2
00:00:04,000 --> 00:00:07,000
walked on the Moon. It was

3
00:00:07,000 --> 00:00:09,000
a long day.
`

// explodingCaptions makes the stub tagger fail.
const explodingCaptions = `1
00:00:00,000 --> 00:00:02,000
EXPLODE the tagger.
`

var knownEntities = []nlp.Entity{
	{Text: "Apollo 11", Type: "PRODUCT"},
	{Text: "Neil Armstrong", Type: "PERSON"},
	{Text: "Moon", Type: "LOC"},
	{Text: "Woodstock", Type: "EVENT"},
}

// stubAnalyzer splits on ". " and tags a fixed vocabulary.
func stubAnalyzer() nlp.Analyzer {
	return nlp.AnalyzerFunc(func(_ context.Context, text string) ([]nlp.Sentence, error) {
		var out []nlp.Sentence
		for _, part := range strings.SplitAfter(text, ". ") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			sentence := nlp.Sentence{Text: part, Entities: []nlp.Entity{}}
			for _, entity := range knownEntities {
				if strings.Contains(part, entity.Text) {
					sentence.Entities = append(sentence.Entities, entity)
				}
			}
			out = append(out, sentence)
		}
		return out, nil
	})
}

type stubTagger struct{}

func (stubTagger) Tag(_ context.Context, sentences []string) ([][]timex.Annotation, error) {
	out := make([][]timex.Annotation, len(sentences))
	for i, sentence := range sentences {
		if strings.Contains(sentence, "EXPLODE") {
			return nil, services.Wrap(services.ErrExternalTool, "timex", "run heideltime", "exit status 1", nil)
		}
		if strings.Contains(sentence, "1969") {
			out[i] = []timex.Annotation{{Value: "1969-07-20", Text: "July 20 1969"}}
		}
	}
	return out, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	pageHits   atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wiki/1969":
			env.pageHits.Add(1)
			_, _ = w.Write([]byte(yearPage1969))
		case "/wiki/July_20":
			env.pageHits.Add(1)
			_, _ = w.Write([]byte(dayPageJuly20))
		case "/w/api.php":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(titlesResponse))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(env.server.Close)

	t.Setenv("HOME", t.TempDir())
	env.cfg = testsupport.NewConfig(t, testsupport.WithWikipediaURL(env.server.URL))
	env.cfg.Logging.Level = "error"
	env.baseDir = testsupport.BaseDir(env.cfg)
	env.configPath = filepath.Join(env.baseDir, "timelines.toml")
	writeTestConfig(t, env.configPath, env.cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func newTestContext() *commandContext {
	var configFlag string
	ctx := newCommandContext(&configFlag)
	ctx.newAnalyzer = func(*config.Config, *slog.Logger) (nlp.Analyzer, error) {
		return stubAnalyzer(), nil
	}
	ctx.newTagger = func(*config.Config, *slog.Logger) timex.Tagger {
		return stubTagger{}
	}
	return ctx
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWithContext(newTestContext())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
