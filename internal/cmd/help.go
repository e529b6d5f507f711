package cmd

var helpText = map[string]string{
	"model":                 "Model key to use (chat-model, chat-model-reasoning, ...)",
	"ask-model":             "Ask which model key to use via an interactive prompt",
	"test":                  "Use the scripted test models instead of live providers",
	"http-proxy":            "HTTP proxy to use for API requests",
	"raw":                   "Render output as raw text when connected to a TTY",
	"quiet":                 "Quiet mode (hide the spinner while loading and stderr messages for success)",
	"help":                  "Show help and exit",
	"version":               "Show version and exit",
	"max-retries":           "Maximum number of times to retry API calls",
	"no-limit":              "Turn off the client-side limit on the size of the input into the model",
	"max-tokens":            "Maximum number of tokens in response",
	"max-completion-tokens": "Maximum number of completion tokens in response (o-series and reasoning models)",
	"max-input-chars":       "Default character limit on input to the model",
	"word-wrap":             "Wrap formatted output at specific width (default is 80)",
	"temp":                  "Temperature (randomness) of results, from 0.0 to 2.0, -1.0 to disable",
	"topp":                  "TopP, an alternative to temperature that narrows response, from 0.0 to 1.0, -1.0 to disable",
	"topk":                  "TopK, only sample from the top K options for each subsequent token, -1 to disable",
	"role":                  "System role to use",
	"system":                "System prompt sent before the prompt",
	"theme":                 "Theme to use in the forms; valid choices are charm, catppuccin, dracula, and base16",
	"editor":                "Edit the prompt in your $EDITOR; only taken into account if no other args and if STDIN is a TTY",
	"hide-reasoning":        "Do not print the model's reasoning",
	"copy":                  "Copy the answer to the clipboard",
	"request-timeout":       "Timeout of a single model request, e.g. 90s or 2m",
	"output":                "Write the image to this file",
	"size":                  "Image size, e.g. 1024x1024",
	"show":                  "Show a stored image by ID or ID prefix, writing it to --output if given",
	"delete":                "Delete a stored image by ID or ID prefix",
}
