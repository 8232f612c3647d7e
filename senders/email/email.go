package email

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/fiffu/buzdealz/lib/models"
)

var (
	//go:embed price_drop.html
	priceDropHTML     string
	priceDropTemplate = template.Must(template.New("price_drop.html").Parse(priceDropHTML))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

type PriceDropEmailFormat struct {
	Notice *models.Notice
}

func (ef *PriceDropEmailFormat) Subject() string {
	return fmt.Sprintf("Buzdealz: %s", ef.Notice.Title)
}

func (ef *PriceDropEmailFormat) Body() string {
	return mustFillTemplate(priceDropTemplate, ef)
}
