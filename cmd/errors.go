package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/filter"
	"github.com/KaramelBytes/chartloom-cli/internal/prompt"
	"github.com/KaramelBytes/chartloom-cli/internal/render"
	"github.com/KaramelBytes/chartloom-cli/internal/utils"
)

// rawReplyTokens caps how much of an unusable model reply is echoed back.
const rawReplyTokens = 300

// explainError attaches a user-facing hint to err when one applies.
func explainError(err error) error {
	if err == nil {
		return nil
	}
	if h := hint(err); h != "" {
		return fmt.Errorf("%w\n  → %s", err, h)
	}
	return err
}

// hint maps the pipeline's typed errors to what the user can do about them.
func hint(err error) string {
	c := currentConfig()
	var (
		authErr  *ai.AuthError
		rlErr    *ai.RateLimitError
		nfErr    *ai.ModelNotFoundError
		brErr    *ai.BadRequestError
		qErr     *ai.QuotaExceededError
		sErr     *ai.ServerError
		unreach  *ai.UnreachableError
		tErr     *ai.TimeoutError
		parseErr *prompt.ParseError
		fErr     *filter.FilterError
		rErr     *render.RenderError
		lErr     *dataset.LoadError
	)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return "set OPENAI_API_KEY (or OPENROUTER_API_KEY), run 'chartloom config set api_key <key>', or switch to a local model with --backend ollama"
	case errors.As(err, &unreach):
		if c != nil && c.Backend == ai.ProviderOllama {
			return fmt.Sprintf("Ollama not reachable at %s. Ensure Ollama is running (see https://ollama.com) and the host is correct. You can set CHARTLOOM_OLLAMA_HOST or config 'ollama_host'", unreach.Host)
		}
		return "endpoint unreachable. Check your network and backend settings ('chartloom backends check')"
	case errors.As(err, &authErr):
		return "authentication failed: check OPENAI_API_KEY / OPENROUTER_API_KEY or 'api_key' in ~/.chartloom/config.yaml"
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("rate limited, try again in ~%ds", int(rlErr.RetryAfter.Seconds()))
		}
		return "rate limited by provider, please retry"
	case errors.As(err, &nfErr):
		if c != nil && c.Backend == ai.ProviderOllama {
			m := c.BackendConfig().Model
			return fmt.Sprintf("local model not available (%s). Install it with 'ollama pull %s' or choose another model", m, m)
		}
		return "model not found. Verify the model name; 'chartloom backends models' lists suggestions"
	case errors.As(err, &brErr):
		return "request rejected. Try a smaller max_tokens or another model"
	case errors.As(err, &qErr):
		return "quota/billing issue. Check your provider account"
	case errors.As(err, &sErr):
		return "provider appears unavailable (server error). Please retry later"
	case errors.As(err, &tErr):
		return "the model did not answer in time. Raise --timeout or 'timeout_sec', or use a smaller model"
	case errors.As(err, &parseErr):
		if parseErr.Raw == "" {
			return "the model returned nothing usable. Rephrase the request or draw the chart manually"
		}
		return "rephrase the request or draw the chart manually. The model replied:\n" + utils.TruncateToTokenLimit(parseErr.Raw, rawReplyTokens)
	case errors.As(err, &fErr):
		if fErr.Column != "" {
			return "check the column name in the filter; 'schema' lists the columns"
		}
		return `filters use comparisons joined by and/or/not, e.g. sex == "male" and age >= 18`
	case errors.As(err, &rErr):
		if rErr.Column != "" {
			return "pick another column; 'schema' lists the columns with their kinds"
		}
		return ""
	case errors.As(err, &lErr):
		if errors.Is(err, dataset.ErrUnknownSample) || errors.Is(err, dataset.ErrUnsupportedFormat) {
			return "pass a .csv, .tsv or .xlsx file, or one of the built-in samples ('chartloom samples')"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "the file does not exist; check the path"
		}
		return ""
	}
	return ""
}
