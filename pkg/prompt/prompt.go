// Package prompt holds the instruction templates sent to the planning,
// critique and image models.
package prompt

import "strings"

const planningTemplate = `You are a world-class flyer designer. Read the request below and describe a
premium, eye-catching flyer as JSON.

Request:
{user_prompt}

Output rules:
- Return ONLY valid JSON with exactly these top-level keys: "theme", "texts", "layout", "images".
- Every key is mandatory, even when its list is empty.
- Positions must be renderable: a named anchor (Top Left, Top Center, Top Right, Left, Center,
  Right, Bottom Left, Bottom Center, Bottom Right, Top, Bottom) or "custom (x%, y%)".
- Sizes must be renderable: a percentage ("40%") or pixels ("72px").

Schema:

{
  "theme": {
    "summary": "one or two sentences on purpose, mood and artistic direction",
    "tone": "luxurious | fresh | organic | energetic | elegant | ...",
    "keywords": ["descriptive ideas"],
    "theme_colors": ["#hex", "#hex", "#hex"],
    "imagery_ideas": ["short image ideas supporting the theme"]
  },
  "texts": [
    {
      "content": "exact text shown on the flyer",
      "font_style": "serif | sans-serif | script | display | brush",
      "font_size": "72px",
      "font_color": "#hex or linear-gradient(...)",
      "angle": "0deg",
      "text_shape": "straight | curved",
      "style": ["bold", "italic", "shadow", "glow", "gradient", "sticker"],
      "position": "Top Center",
      "priority": "high | medium | low",
      "layer": "foreground | background | overlay"
    }
  ],
  "layout": {
    "background": {"color": "#hex", "texture": "gradient | paper | sky | abstract | metallic"},
    "layout_shapes": [
      {
        "shape": "circle | rectangle | banner | wave | floral | sticker | blob",
        "position": "Bottom Right",
        "size": "60%",
        "color": "#hex",
        "opacity": 0.8,
        "layer": "background | foreground"
      }
    ],
    "balance": "symmetrical | asymmetrical | diagonal | layered"
  },
  "images": [
    {"description": "background image matching the theme", "position": "Background", "size": "100%"},
    {"description": "decorative element placed above a shape", "position": "Top Right", "size": "25%"}
  ]
}

Aim for depth: layered soft lighting, slightly translucent overlapping shapes, elegant curves and a
confident mix of script and display typography. No commentary outside the JSON.`

const refinementTemplate = `You are a senior flyer designer reviewing an HTML flyer built from absolutely
positioned elements on an 800x600 canvas.

Review spacing, alignment, readability, colour balance and hierarchy. You may adjust presentation:
inline styles, sizes, colours, shadows and positions of shapes and text.

You must NOT:
- change, remove or add any literal text content;
- change, remove or add any <img> element or image path, or the canvas background image;
- remove data-kind, data-asset-index or data-background-asset attributes, or comments of the form
  IMAGE_PLACEHOLDER_<n>;
- lower any text z-index below 3 or make the overlay interactive.

Images currently on the flyer:
{assets}

Respond with a single JSON object and nothing else:
{
  "judgment": "one-sentence verdict",
  "score": 0-10,
  "feedback": ["remaining issues, empty if none"],
  "edited_html": "the complete edited HTML, or an empty string to keep the current version"
}

HTML:
{html}`

const imageSuffix = "premium, elegant, professional flyer design"

// Planning embeds a user request in the planning template.
func Planning(userPrompt string) string {
	return strings.NewReplacer("{user_prompt}", strings.TrimSpace(userPrompt)).Replace(planningTemplate)
}

// Refinement embeds a rendered document and its asset description in the
// critique template.
func Refinement(html, assets string) string {
	if strings.TrimSpace(assets) == "" {
		assets = "(none)"
	}
	return strings.NewReplacer("{assets}", assets, "{html}", html).Replace(refinementTemplate)
}

// Image derives an image generation prompt from a request description and
// the theme tone.
func Image(description, tone string) string {
	parts := make([]string, 0, 3)
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, d)
	}
	if t := strings.TrimSpace(tone); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(append(parts, imageSuffix), ", ")
}
