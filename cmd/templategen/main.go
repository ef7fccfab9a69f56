// Command templategen writes the built-in bill template, or one built from a
// custom layout, so it can be edited and served through pdf.template_path.
package main

import (
	"flag"
	"fmt"
	"os"

	"billdesk/internal/logger"
	"billdesk/internal/pdf"
)

func main() {
	out := flag.String("out", "bill_template.pdf", "output file")
	layoutPath := flag.String("layout", "", "layout toml (defaults to the built-in layout)")
	flag.Parse()

	if err := generate(*out, *layoutPath); err != nil {
		fmt.Fprintf(os.Stderr, "templategen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}

func generate(out, layoutPath string) error {
	var layout *pdf.Layout
	var err error
	if layoutPath == "" {
		layout, err = pdf.DefaultLayout()
	} else {
		var data []byte
		if data, err = os.ReadFile(layoutPath); err != nil {
			return err
		}
		layout, err = pdf.ParseLayout(string(data))
	}
	if err != nil {
		return err
	}

	tpl, err := pdf.BuildTemplate(layout)
	if err != nil {
		return err
	}
	// Reject layouts the renderer would refuse at startup.
	renderer, err := pdf.NewRendererFromTemplate(tpl, false, logger.NewNop())
	if err != nil {
		return fmt.Errorf("generated template is not usable: %w", err)
	}
	fmt.Printf("line capacity: %d\n", renderer.LineCapacity())
	return os.WriteFile(out, tpl, 0o644)
}
