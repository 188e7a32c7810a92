package agent

import (
	"context"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is backtesting trading strategies over historical prices. He is here primarily
			to understand why a strategy performed the way it did, and how to improve it.

			Devise a plan of questions to ask to each experts and come up with the best response
			to the user's request.

			The user will assume that you already read his strategy document and his backtest
			results, check them with the Quant first.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns the market-context expert. It grounds its answers with
// Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewQuant returns the backtesting expert. Its tools, provided by the caller,
// read the user's strategy document and replay it over the loaded market data.
func NewQuant(tools ...Function) *Expert {
	return &Expert{
		Name: "Quant",
		Description: `This is the Quant. He is in charge of reading the user's strategy document
		and running it over the historical market data.
		He can report the trades, the valuation curve and the monthly snapshots of a backtest.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(tools)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a quantitative analyst in charge of the user's trading strategies.
				You know how to use the Tools to read the strategy document and to replay it
				over the historical prices.
				You are part of a team of experts, yours is everything about the user's
				strategies and their simulated performance. They might ask you questions with
				approximative language, pardon them and figure out what they meant.

				Use the available tools to get
				  - the strategy document, rule by rule
				  - the backtest report: trades, warnings, final value, monthly snapshots
			`}}},
		},
		Library: NewLibrary(tools),
	}
}

// NewStrategiesTool exposes the canonical strategy document to the Quant.
// The read callback returns the document as JSON.
func NewStrategiesTool(read func() (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Strategies",
			Description: `Strategies returns the user's strategy document in its canonical JSON form.

			Each key is a traded ticker mapped to its buy rule, sell rule and portfolio weight.
			A rule names the reference ticker, the indicator ("by"), the averaging period, the
			trigger ("criteria"), the order sizing ("quantity") and the execution price field
			("trade_as").`,
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The strategy document as a JSON object.",
			},
		},
		Func: toolFunc("Strategies", read),
	}
}

// NewReportTool exposes a full backtest run to the Quant. The run callback
// replays every strategy and returns the markdown report.
func NewReportTool(run func() (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Report",
			Description: `Report replays the user's strategies over the loaded historical prices
			and returns one markdown report per strategy: initial capital, final value, profit
			rate, the executed trades, the warnings and the monthly snapshots.`,
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted backtest report.",
			},
		},
		Func: toolFunc("Report", run),
	}
}

// toolFunc wraps a no-argument callback into the function-response plumbing.
func toolFunc(name string, call func() (string, error)) func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		resp := &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{}}
		out, err := call()
		if err != nil {
			resp.Response["error"] = err.Error()
			return resp
		}
		resp.Response["output"] = out
		return resp
	}
}
