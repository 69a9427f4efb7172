package preview

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

//go:embed static/app.js
var appJS string

var (
	minifyOnce sync.Once
	minifiedJS []byte
	minifyErr  error
)

// script returns the browser glue, minified on first use.
func script() ([]byte, error) {
	minifyOnce.Do(func() {
		minifiedJS, minifyErr = minify(appJS)
	})
	return minifiedJS, minifyErr
}

func minify(src string) ([]byte, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		line := 0
		if msg.Location != nil {
			line = msg.Location.Line
		}
		return nil, fmt.Errorf("failed to minify app.js (line %d): %s", line, msg.Text)
	}
	return result.Code, nil
}
