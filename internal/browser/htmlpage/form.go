package htmlpage

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"slotwatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// formOf returns the form a control belongs to, either through its `form`
// attribute or its closest ancestor.
func (p *Page) formOf(node *html.Node) *html.Node {
	if id, ok := htmlutil.Attr(node, "form"); ok && id != "" {
		sel := p.doc.Find("form#" + id)
		if sel.Length() > 0 {
			return sel.Nodes[0]
		}
	}
	for n := node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == "form" {
			return n
		}
	}
	return nil
}

func (p *Page) isChecked(node *html.Node) bool {
	if checked, ok := p.checked[node]; ok {
		return checked
	}
	return htmlutil.HasAttr(node, "checked")
}

// checkRadio checks `node` and unchecks every other radio of its group.
func (p *Page) checkRadio(node *html.Node) {
	name, _ := htmlutil.Attr(node, "name")
	form := p.formOf(node)
	if name != "" {
		p.doc.Find(`input[type="radio"]`).Each(func(_ int, s *goquery.Selection) {
			other := s.Nodes[0]
			if other == node || s.AttrOr("name", "") != name || p.formOf(other) != form {
				return
			}
			p.checked[other] = false
		})
	}
	p.checked[node] = true
}

// controlValue is the current value of a text control.
func (p *Page) controlValue(node *html.Node) string {
	if v, ok := p.typed[node]; ok {
		return v
	}
	if node.Data == "textarea" {
		return htmlutil.GetText(node)
	}
	v, _ := htmlutil.Attr(node, "value")
	return v
}

func selectValue(node *html.Node) (string, bool) {
	options := goquery.NewDocumentFromNode(node).Find("option")
	if options.Length() == 0 {
		return "", false
	}
	chosen := options.Filter("[selected]").First()
	if chosen.Length() == 0 {
		chosen = options.First()
	}
	if v, ok := chosen.Attr("value"); ok {
		return v, true
	}
	return htmlutil.CleanText(chosen.Text()), true
}

// serialize builds the form data set the way a browser would on submission
// through `submitter`.
func (p *Page) serialize(form, submitter *html.Node) url.Values {
	values := url.Values{}
	goquery.NewDocumentFromNode(form).Find("input, select, textarea, button").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		name, ok := htmlutil.Attr(node, "name")
		if !ok || name == "" || htmlutil.HasAttr(node, "disabled") {
			return
		}

		switch node.Data {
		case "input":
			switch inputType(node) {
			case "radio", "checkbox":
				if p.isChecked(node) {
					values.Add(name, s.AttrOr("value", "on"))
				}
			case "submit", "button", "reset":
				if node == submitter {
					values.Add(name, s.AttrOr("value", ""))
				}
			case "image":
				if node == submitter {
					values.Add(name+".x", "0")
					values.Add(name+".y", "0")
				}
			case "file":
			default:
				values.Add(name, p.controlValue(node))
			}
		case "textarea":
			values.Add(name, p.controlValue(node))
		case "select":
			if v, ok := selectValue(node); ok {
				values.Add(name, v)
			}
		case "button":
			if node == submitter {
				values.Add(name, s.AttrOr("value", ""))
			}
		}
	})
	return values
}

// submit submits the form `submitter` belongs to, a submitter outside any
// form does nothing.
func (p *Page) submit(ctx context.Context, submitter *html.Node) {
	form := p.formOf(submitter)
	if form == nil {
		return
	}

	action, _ := htmlutil.Attr(form, "action")
	if v, ok := htmlutil.Attr(submitter, "formaction"); ok {
		action = v
	}
	if strings.TrimSpace(action) == "" {
		action = p.URL()
	}

	method, _ := htmlutil.Attr(form, "method")
	if v, ok := htmlutil.Attr(submitter, "formmethod"); ok {
		method = v
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	p.startNavigation(ctx, method, action, p.serialize(form, submitter))
}
