package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Strategy selects how a Locator query is interpreted.
type Strategy int

const (
	// ByXPath evaluates the query as an XPath 1.0 expression.
	ByXPath Strategy = iota
	// ByCSS evaluates the query as a CSS selector.
	ByCSS
)

func (s Strategy) String() string {
	switch s {
	case ByXPath:
		return "xpath"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Locator is a named query for an on-screen element.
type Locator struct {
	Name     string
	Strategy Strategy
	Query    string
}

// XPath returns an XPath locator.
func XPath(name, query string) Locator {
	return Locator{Name: name, Strategy: ByXPath, Query: query}
}

// CSS returns a CSS selector locator.
func CSS(name, query string) Locator {
	return Locator{Name: name, Strategy: ByCSS, Query: query}
}

// With fills the query template with args. String arguments must already be
// quoted for the target strategy (see XPathLiteral).
func (l Locator) With(args ...any) Locator {
	return Locator{
		Name:     l.Name,
		Strategy: l.Strategy,
		Query:    fmt.Sprintf(l.Query, args...),
	}
}

func (l Locator) String() string {
	if l.Name == "" {
		return fmt.Sprintf("%s=%s", l.Strategy, l.Query)
	}
	return fmt.Sprintf("%s [%s=%s]", l.Name, l.Strategy, l.Query)
}

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds becomes a concat() call.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// queryAllJS returns a script expression evaluating to an array of every node loc matches.
func queryAllJS(loc Locator) string {
	q := jsString(loc.Query)
	if loc.Strategy == ByCSS {
		return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", q)
	}
	return fmt.Sprintf(`(function(){var r=document.evaluate(%s,document,null,XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);`+
		`var a=[];for(var i=0;i<r.snapshotLength;i++){a.push(r.snapshotItem(i));}return a;})()`, q)
}

func countJS(loc Locator) string {
	return queryAllJS(loc) + ".length"
}

func textsJS(loc Locator) string {
	return queryAllJS(loc) + `.map(function(e){return ((e.innerText!==undefined?e.innerText:e.textContent)||'').trim();})`
}

func jsClickJS(loc Locator) string {
	return fmt.Sprintf(`(function(){var e=%s[0];if(!e){return false;}`+
		`e.scrollIntoView({block:'center'});e.click();return true;})()`, queryAllJS(loc))
}

// valueJS evaluates to the live value property of the first match, or null.
func valueJS(loc Locator) string {
	return fmt.Sprintf(`(function(){var e=%s[0];if(!e){return null;}return e.value===undefined?null:String(e.value);})()`, queryAllJS(loc))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
