// Package web holds the HTML platform predicates of a component runtime.
package web

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/viewcore/pkg/component"
)

func makeSet(list string) mapset.Set[string] {
	return mapset.NewSet(strings.Split(list, ",")...)
}

var (
	htmlTags = makeSet("html,body,base,head,link,meta,style,title," +
		"address,article,aside,footer,header,h1,h2,h3,h4,h5,h6,hgroup,nav,section," +
		"div,dd,dl,dt,figcaption,figure,picture,hr,img,li,main,ol,p,pre,ul," +
		"a,b,abbr,bdi,bdo,br,cite,code,data,dfn,em,i,kbd,mark,q,rp,rt,rtc,ruby," +
		"s,samp,small,span,strong,sub,sup,time,u,var,wbr,area,audio,map,track,video," +
		"embed,object,param,source,canvas,script,noscript,del,ins," +
		"caption,col,colgroup,table,thead,tbody,td,th,tr," +
		"button,datalist,fieldset,form,input,label,legend,meter,optgroup,option," +
		"output,progress,select,textarea," +
		"details,dialog,menu,menuitem,summary," +
		"content,element,shadow,template,blockquote,iframe,tfoot")

	// subset of the svg tags that can contain other elements
	svgTags = makeSet("svg,animate,circle,clippath,cursor,defs,desc,ellipse,filter,font-face," +
		"foreignObject,g,glyph,image,line,marker,mask,missing-glyph,path,pattern," +
		"polygon,polyline,rect,switch,symbol,text,textpath,tspan,use,view")

	reservedAttrs = makeSet("style,class")
	acceptValue   = makeSet("input,textarea,option,select,progress")

	booleanAttrs = makeSet("allowfullscreen,async,autofocus,autoplay,checked,compact,controls,declare," +
		"default,defaultchecked,defaultmuted,defaultselected,defer,disabled," +
		"enabled,formnovalidate,hidden,indeterminate,inert,ismap,itemscope,loop,multiple," +
		"muted,nohref,noresize,noshade,novalidate,nowrap,open,pauseonexit,readonly," +
		"required,reversed,scoped,seamless,selected,sortable," +
		"truespeed,typemustmatch,visible")
)

// IsHTMLTag reports whether tag is a standard HTML element.
func IsHTMLTag(tag string) bool { return htmlTags.Contains(tag) }

// IsSVG reports whether tag is an SVG element.
func IsSVG(tag string) bool { return svgTags.Contains(tag) }

// IsReservedTag reports whether tag is a platform element and so can't be
// used as a component name.
func IsReservedTag(tag string) bool { return IsHTMLTag(tag) || IsSVG(tag) }

// IsReservedAttr reports attributes handled by the runtime itself.
func IsReservedAttr(attr string) bool { return reservedAttrs.Contains(attr) }

// IsBooleanAttr reports attributes whose presence alone is their value.
func IsBooleanAttr(attr string) bool { return booleanAttrs.Contains(attr) }

// MustUseProp reports attributes that have to be bound as element properties.
func MustUseProp(tag, typ, attr string) bool {
	switch attr {
	case "value":
		return acceptValue.Contains(tag) && typ != "button"
	case "selected":
		return tag == "option"
	case "checked":
		return tag == "input"
	case "muted":
		return tag == "video"
	}
	return false
}

// GetTagNamespace returns "svg" or "math" for elements created in those
// namespaces and "" otherwise.
func GetTagNamespace(tag string) string {
	if IsSVG(tag) {
		return "svg"
	}
	// MathML only supports the math root element
	if tag == "math" {
		return "math"
	}
	return ""
}

// IsUnknownElement reports tags that are not platform elements. Custom
// elements are unknown too unless listed in Config.IgnoredElements.
func IsUnknownElement(tag string) bool {
	return !IsReservedTag(tag) && !IsReservedTag(strings.ToLower(tag))
}

// Install wires the HTML predicates into cfg.
func Install(cfg *component.Config) {
	cfg.IsReservedTag = IsReservedTag
	cfg.IsReservedAttr = IsReservedAttr
	cfg.MustUseProp = MustUseProp
	cfg.GetTagNamespace = GetTagNamespace
	cfg.IsUnknownElement = IsUnknownElement
}
