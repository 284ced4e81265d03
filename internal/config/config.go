package config

import (
	"fmt"
	"image/color"
	"reflect"
	"sort"
	"strings"

	"github.com/example/blurkit/internal/editor"
	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/region"
	"github.com/example/blurkit/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Export bool
	Copy   bool
	Quota  bool
}

// Editor holds the editor's starting tool and effect.
type Editor struct {
	Tool      editor.Tool
	Effect    region.EffectKind
	Intensity int
	FillColor color.RGBA
}

// RegionEffect is the effect new regions start with.
func (e Editor) RegionEffect() region.Effect {
	return region.Effect{Kind: e.Effect, Intensity: region.ClampIntensity(e.Intensity), Color: e.FillColor}
}

// Config holds the application configuration.
type Config struct {
	Tier    quota.Tier
	Theme   string
	SaveDir string
	Editor  Editor
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	fx := region.DefaultEffect()
	return &Config{
		Tier:  quota.Free,
		Theme: "", // Default to empty to allow fallback to Env/Default
		Editor: Editor{
			Tool:      editor.ToolRectangle,
			Effect:    fx.Kind,
			Intensity: fx.Intensity,
			FillColor: fx.Color,
		},
		Notify: Notify{
			Export: false,
			Copy:   false,
			Quota:  true,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	fmt.Fprintf(&sb, "tier = %s\n", c.Tier)
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Editor.Tool)
	fmt.Fprintf(&sb, "effect = %s\n", c.Editor.Effect)
	fmt.Fprintf(&sb, "intensity = %d\n", c.Editor.Intensity)
	fmt.Fprintf(&sb, "fill_color = %s\n", theme.Hex(c.Editor.FillColor))
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "quota = %v\n", c.Notify.Quota)
	sb.WriteString("\n")

	// Themes sections
	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		writeThemeColors(&sb, t)
		sb.WriteString("\n")
	}

	return sb.String()
}

// writeThemeColors emits every colour field of t in declaration order.
func writeThemeColors(sb *strings.Builder, t *theme.Theme) {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	rgba := reflect.TypeOf(color.RGBA{})
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type != rgba {
			continue
		}
		fmt.Fprintf(sb, "%s: %s\n", typ.Field(i).Name, theme.Hex(val.Field(i).Interface().(color.RGBA)))
	}
}
