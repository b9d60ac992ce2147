package htmlpage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"slotwatch/internal/browser"
	"slotwatch/pkg/htmlutil"

	"golang.org/x/net/html"
)

type element struct {
	page       *Page
	node       *html.Node
	generation int
}

func (e *element) live() error {
	if e.page.closed {
		return errPageClosed
	}
	if e.generation != e.page.generation {
		return fmt.Errorf("%w: <%s>", browser.ErrStaleElement, e.node.Data)
	}
	return nil
}

func (e *element) Attr(name string) (string, bool) {
	return htmlutil.Attr(e.node, name)
}

func (e *element) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	sel := e.page.doc.FindNodes(e.node).Find(selector)
	return e.page.elements(sel), nil
}

func inputType(node *html.Node) string {
	t, ok := htmlutil.Attr(node, "type")
	if !ok || t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

func isTextControl(node *html.Node) bool {
	switch node.Data {
	case "textarea":
		return true
	case "input":
		switch inputType(node) {
		case "radio", "checkbox", "submit", "image", "button", "reset", "hidden", "file":
			return false
		}
		return true
	}
	return false
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.live(); err != nil {
		return err
	}
	if !isTextControl(e.node) || htmlutil.HasAttr(e.node, "disabled") {
		return fmt.Errorf("%w: cannot type into <%s>", browser.ErrNotInteractable, e.node.Data)
	}
	e.page.typed[e.node] = e.page.controlValue(e.node) + text
	return nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	if htmlutil.HasAttr(e.node, "disabled") {
		return fmt.Errorf("%w: <%s> is disabled", browser.ErrNotInteractable, e.node.Data)
	}

	switch e.node.Data {
	case "a":
		return e.followLink(ctx)
	case "input":
		switch inputType(e.node) {
		case "radio":
			e.page.checkRadio(e.node)
		case "checkbox":
			e.page.checked[e.node] = !e.page.isChecked(e.node)
		case "submit", "image":
			e.page.submit(ctx, e.node)
		}
	case "button":
		t, _ := htmlutil.Attr(e.node, "type")
		if t == "" || strings.EqualFold(t, "submit") {
			e.page.submit(ctx, e.node)
		}
	}
	return nil
}

func (e *element) followLink(ctx context.Context) error {
	href, ok := htmlutil.Attr(e.node, "href")
	if !ok {
		return fmt.Errorf("%w: anchor without href", browser.ErrNotInteractable)
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	e.page.startNavigation(ctx, http.MethodGet, href, nil)
	return nil
}
