package pdfgen

import (
	"html/template"
	"strings"
	"time"

	"github.com/wings-of-memory/memorialbackend/models"
)

// galleryGroup is one category section of the PDF gallery.
type galleryGroup struct {
	Category string
	Images   []models.GalleryImage
}

// templateData is the single input of the memorial template.
type templateData struct {
	models.MemorialView
	GalleryGroups []galleryGroup
	Year          int
}

var favoriteIcons = map[string]string{
	"food":   "🍽️",
	"movie":  "🎬",
	"book":   "📚",
	"song":   "🎵",
	"hobby":  "🎨",
	"place":  "📍",
	"color":  "🎨",
	"memory": "🌟",
	"quote":  "💬",
	"sport":  "⚽",
}

func favoriteIcon(category string) string {
	if icon, ok := favoriteIcons[strings.ToLower(category)]; ok {
		return icon
	}
	return "💫"
}

// formatLongDate renders a stored date long-form ("January 2, 2020")
// when it parses as a known layout, else passes the raw value through.
func formatLongDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return value
}

// paragraphs splits free text on line breaks, dropping blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// avatarInitial returns the upper-cased first letter of an author name.
func avatarInitial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "A"
	}
	runes := []rune(name)
	return strings.ToUpper(string(runes[0]))
}

// groupGallery buckets gallery images by category, preserving the order
// categories first appear in.
func groupGallery(images models.GalleryImages) []galleryGroup {
	var groups []galleryGroup
	index := map[string]int{}
	for _, img := range images {
		category := img.Category
		if strings.TrimSpace(category) == "" {
			category = models.DefaultGalleryCategory
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, galleryGroup{Category: category})
		}
		groups[i].Images = append(groups[i].Images, img)
	}
	return groups
}

var memorialTemplate = template.Must(template.New("memorial").Funcs(template.FuncMap{
	"favoriteIcon":   favoriteIcon,
	"formatLongDate": formatLongDate,
	"paragraphs":     paragraphs,
	"avatarInitial":  avatarInitial,
}).Parse(memorialTemplateHTML))

// RenderHTML produces the self-contained memorial document fed to the
// headless browser. It is a pure function of its input: the only
// environmental dependency is the footer's year stamp, passed in by the
// caller. All user-supplied text goes through template escaping.
func RenderHTML(view models.MemorialView, now time.Time) (string, error) {
	data := templateData{
		MemorialView:  view,
		GalleryGroups: groupGallery(view.Gallery),
		Year:          now.Year(),
	}
	var b strings.Builder
	if err := memorialTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

const memorialTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Name}} - Memorial</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }

    @page { size: A4; margin: 0.5cm; }

    body {
      margin: 0;
      padding: 0;
      font-family: 'Inter', -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      -webkit-print-color-adjust: exact !important;
      print-color-adjust: exact !important;
      background-color: #ffffff;
      line-height: 1.6;
      color: #374151;
    }

    .page-break { page-break-after: always; break-after: page; }
    .avoid-break { page-break-inside: avoid; break-inside: avoid; }

    .header-section {
      background: linear-gradient(135deg, #fef3c7 0%, #fed7aa 50%, #fdba74 100%);
      min-height: 70vh;
      display: flex;
      align-items: center;
      justify-content: center;
      padding: 3rem 2rem;
      text-align: center;
    }
    .header-content { max-width: 800px; margin: 0 auto; }
    .profile-container { margin-bottom: 2.5rem; display: flex; justify-content: center; }
    .profile-image {
      width: 200px; height: 200px; border-radius: 50%; object-fit: cover;
      border: 8px solid rgba(255, 255, 255, 0.9);
      box-shadow: 0 20px 25px -5px rgba(0, 0, 0, 0.15);
    }
    .profile-placeholder {
      width: 200px; height: 200px; border-radius: 50%;
      background: linear-gradient(135deg, #ffffff 0%, #f8fafc 100%);
      border: 8px solid rgba(255, 255, 255, 0.9);
      box-shadow: 0 20px 25px -5px rgba(0, 0, 0, 0.15);
      display: flex; align-items: center; justify-content: center;
    }
    .profile-icon { width: 80px; height: 80px; color: #f59e0b; }
    .header-name { font-size: 3.5rem; font-weight: 800; color: #1f2937; margin-bottom: 1rem; line-height: 1.1; }
    .header-dates { font-size: 1.75rem; color: #4b5563; margin-bottom: 1rem; font-weight: 500; }
    .header-location {
      display: inline-flex; align-items: center; gap: 0.75rem;
      font-size: 1.25rem; color: #6b7280;
      background: rgba(255, 255, 255, 0.8); padding: 0.75rem 1.5rem; border-radius: 50px;
    }

    .section-container { max-width: 800px; margin: 0 auto; padding: 4rem 2rem; }
    .section-card {
      background: #ffffff; border-radius: 1.5rem; padding: 3rem;
      box-shadow: 0 4px 6px -1px rgba(0, 0, 0, 0.05);
      border: 1px solid #f3f4f6;
    }
    .section-title {
      font-size: 2.25rem; font-weight: 700; color: #1f2937;
      margin-bottom: 2.5rem; padding-bottom: 1rem; border-bottom: 3px solid #fde68a;
    }

    .obituary-content { font-size: 1.125rem; color: #4b5563; line-height: 1.8; }
    .obituary-content p { margin-bottom: 1.5rem; }

    .timeline-container { position: relative; padding-left: 4rem; }
    .timeline-line {
      position: absolute; left: 2.5rem; top: 0; bottom: 0; width: 3px;
      background: linear-gradient(to bottom, #f59e0b, #d97706);
    }
    .timeline-item { display: flex; gap: 2rem; margin-bottom: 2.5rem; position: relative; }
    .timeline-year {
      flex-shrink: 0; width: 6rem;
      background: linear-gradient(135deg, #f59e0b, #d97706);
      color: white; padding: 0.75rem 1rem; border-radius: 50px;
      font-weight: 700; font-size: 0.875rem; text-align: center; z-index: 10;
    }
    .timeline-content {
      flex: 1; background: #fffbeb; border-radius: 1rem; padding: 2rem;
      border: 1px solid #fde68a;
    }
    .timeline-title { font-size: 1.375rem; font-weight: 700; color: #1f2937; margin-bottom: 0.75rem; }
    .timeline-description { color: #6b7280; line-height: 1.7; margin-bottom: 1rem; }
    .timeline-location { color: #9ca3af; font-size: 0.875rem; }

    .favorites-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 1.5rem; }
    .favorite-item {
      background: linear-gradient(135deg, #fffbeb 0%, #fef3c7 100%);
      border-radius: 1rem; padding: 2rem; border: 1px solid #fde68a;
    }
    .favorite-header { display: flex; align-items: center; gap: 1rem; margin-bottom: 1rem; }
    .favorite-icon {
      width: 3.5rem; height: 3.5rem;
      background: linear-gradient(135deg, #f59e0b, #d97706);
      border-radius: 50%; display: flex; align-items: center; justify-content: center;
      font-size: 1.5rem; flex-shrink: 0;
    }
    .favorite-category { font-size: 1.25rem; font-weight: 700; color: #92400e; text-transform: capitalize; }
    .favorite-text { color: #1f2937; font-size: 1.0625rem; line-height: 1.6; }

    .family-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 1.5rem; }
    .family-member {
      display: flex; align-items: center; gap: 1.25rem; padding: 1.5rem;
      background: #ffffff; border-radius: 1rem; border: 2px solid #fde68a;
    }
    .family-image { width: 5rem; height: 5rem; border-radius: 50%; object-fit: cover; border: 3px solid #fcd34d; }
    .family-placeholder {
      width: 5rem; height: 5rem;
      background: linear-gradient(135deg, #fffbeb, #fef3c7);
      border-radius: 50%; display: flex; align-items: center; justify-content: center;
      border: 3px solid #fcd34d;
    }
    .family-initials { color: #d97706; font-weight: 700; font-size: 1.125rem; }
    .family-name { font-weight: 700; color: #1f2937; font-size: 1.125rem; margin-bottom: 0.25rem; }
    .family-relation { color: #d97706; font-size: 0.9375rem; font-weight: 600; text-transform: capitalize; }

    .gallery-category { font-size: 1.375rem; font-weight: 700; color: #92400e; margin: 2rem 0 1rem; }
    .gallery-category:first-of-type { margin-top: 0; }
    .gallery-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1rem; }
    .gallery-item { border-radius: 0.75rem; overflow: hidden; border: 1px solid #e5e7eb; }
    .gallery-image { width: 100%; aspect-ratio: 1; object-fit: cover; display: block; }
    .gallery-caption { padding: 0.5rem 0.75rem; font-size: 0.8125rem; color: #6b7280; }

    .memory-list { display: flex; flex-direction: column; gap: 1.5rem; }
    .memory-item {
      background: linear-gradient(135deg, #fffbeb 0%, #fef3c7 100%);
      border-radius: 1rem; padding: 2rem; border-left: 4px solid #f59e0b;
    }
    .memory-content { display: flex; gap: 1.25rem; }
    .memory-avatar {
      flex-shrink: 0; width: 3rem; height: 3rem;
      background: linear-gradient(135deg, #f59e0b, #d97706);
      border-radius: 50%; display: flex; align-items: center; justify-content: center;
      color: white; font-weight: 700; font-size: 1.125rem;
    }
    .memory-text { color: #1f2937; font-size: 1.0625rem; line-height: 1.7; font-style: italic; margin-bottom: 1rem; }
    .memory-footer { display: flex; justify-content: space-between; align-items: center; }
    .memory-author { color: #92400e; font-size: 0.9375rem; font-weight: 600; }
    .memory-date { color: #9ca3af; font-size: 0.8125rem; }

    .service-content {
      background: linear-gradient(135deg, #fffbeb 0%, #fef3c7 100%);
      border-radius: 1rem; padding: 2.5rem;
    }
    .service-item { display: flex; gap: 1.25rem; margin-bottom: 2rem; align-items: flex-start; }
    .service-item:last-child { margin-bottom: 0; }
    .service-label { font-size: 1.125rem; font-weight: 700; color: #92400e; margin-bottom: 0.5rem; }
    .service-value { color: #1f2937; font-size: 1.0625rem; line-height: 1.6; word-break: break-word; }
    .service-platform { color: #d97706; font-size: 0.9375rem; margin-top: 0.375rem; font-weight: 600; }

    .footer-section {
      max-width: 800px; margin: 2rem auto 0; padding: 3rem 2rem;
      text-align: center; border-top: 2px solid #fde68a;
    }
    .footer-quote { font-size: 1.375rem; color: #6b7280; font-style: italic; margin-bottom: 0.5rem; line-height: 1.6; }
    .footer-credit { font-size: 0.9375rem; color: #9ca3af; margin-top: 2rem; }

    @media print {
      body { -webkit-print-color-adjust: exact !important; print-color-adjust: exact !important; }
      .page-break { page-break-after: always; }
      .avoid-break { page-break-inside: avoid; }
    }
  </style>
</head>
<body>

  <div class="header-section page-break">
    <div class="header-content">
      <div class="profile-container">
        {{if .ProfileImage}}
          <img src="{{.ProfileImage}}" alt="{{.Name}}" class="profile-image" />
        {{else}}
          <div class="profile-placeholder">
            <svg class="profile-icon" fill="currentColor" viewBox="0 0 20 20">
              <path fill-rule="evenodd" d="M10 9a3 3 0 100-6 3 3 0 000 6zm-7 9a7 7 0 1114 0H3z" clip-rule="evenodd"></path>
            </svg>
          </div>
        {{end}}
      </div>

      <h1 class="header-name">{{.Name}}</h1>

      {{if or .BirthDate .DeathDate}}
        <div class="header-dates">
          {{formatLongDate .BirthDate}}{{if and .BirthDate .DeathDate}} &mdash; {{end}}{{formatLongDate .DeathDate}}
        </div>
      {{end}}

      {{if .Location}}
        <div class="header-location"><span>{{.Location}}</span></div>
      {{end}}
    </div>
  </div>

  {{if .Obituary}}
    <div class="section-container avoid-break">
      <div class="section-card">
        <h2 class="section-title">Life Story</h2>
        <div class="obituary-content">
          {{range paragraphs .Obituary}}<p>{{.}}</p>{{end}}
        </div>
      </div>
    </div>
  {{end}}

  {{if .Timeline}}
    <div class="section-container{{if .Obituary}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Life Journey</h2>
        <div class="timeline-container">
          <div class="timeline-line"></div>
          {{range .Timeline}}
            <div class="timeline-item avoid-break">
              <div class="timeline-year">{{.Year}}</div>
              <div class="timeline-content">
                <h3 class="timeline-title">{{.Title}}</h3>
                {{if .Description}}<p class="timeline-description">{{.Description}}</p>{{end}}
                {{if .Location}}<div class="timeline-location">{{.Location}}</div>{{end}}
              </div>
            </div>
          {{end}}
        </div>
      </div>
    </div>
  {{end}}

  {{if .Favorites}}
    <div class="section-container{{if .Timeline}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Cherished Favorites</h2>
        <div class="favorites-grid">
          {{range .Favorites}}
            <div class="favorite-item avoid-break">
              <div class="favorite-header">
                <div class="favorite-icon">{{favoriteIcon .Category}}</div>
                <h3 class="favorite-category">{{.Category}}</h3>
              </div>
              <p class="favorite-text">{{if .Text}}{{.Text}}{{else}}No details provided{{end}}</p>
            </div>
          {{end}}
        </div>
      </div>
    </div>
  {{end}}

  {{if .FamilyTree}}
    <div class="section-container{{if .Favorites}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Beloved Family</h2>
        <div class="family-grid">
          {{range .FamilyTree}}
            <div class="family-member avoid-break">
              {{if .Image}}
                <img src="{{.Image}}" alt="{{.Name}}" class="family-image" />
              {{else}}
                <div class="family-placeholder">
                  <span class="family-initials">{{.Initials}}</span>
                </div>
              {{end}}
              <div class="family-info">
                <p class="family-name">{{if .Name}}{{.Name}}{{else}}Unknown{{end}}</p>
                <p class="family-relation">{{if .Relation}}{{.Relation}}{{else}}Family{{end}}</p>
              </div>
            </div>
          {{end}}
        </div>
      </div>
    </div>
  {{end}}

  {{if .GalleryGroups}}
    <div class="section-container{{if .FamilyTree}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Photo Gallery</h2>
        {{range .GalleryGroups}}
          <h3 class="gallery-category">{{.Category}}</h3>
          <div class="gallery-grid">
            {{range .Images}}
              <div class="gallery-item avoid-break">
                <img src="{{.URL}}" alt="{{if .DisplayCaption}}{{.DisplayCaption}}{{else}}Memory photo{{end}}" class="gallery-image" />
                {{if .DisplayCaption}}<div class="gallery-caption">{{.DisplayCaption}}</div>{{end}}
              </div>
            {{end}}
          </div>
        {{end}}
      </div>
    </div>
  {{end}}

  {{if .MemoryWall}}
    <div class="section-container{{if .GalleryGroups}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Shared Memories</h2>
        <div class="memory-list">
          {{range .MemoryWall}}
            <div class="memory-item avoid-break">
              <div class="memory-content">
                <div class="memory-avatar">{{avatarInitial .AuthorName}}</div>
                <div class="memory-body">
                  <p class="memory-text">&quot;{{if .Message}}{{.Message}}{{else}}No message{{end}}&quot;</p>
                  <div class="memory-footer">
                    <p class="memory-author">&mdash; {{if .AuthorName}}{{.AuthorName}}{{else}}Anonymous{{end}}</p>
                    {{if .CreatedAt}}<p class="memory-date">{{formatLongDate .CreatedAt}}</p>{{end}}
                  </div>
                </div>
              </div>
            </div>
          {{end}}
        </div>
      </div>
    </div>
  {{end}}

  {{if .Service.HasContent}}
    <div class="section-container{{if .MemoryWall}} page-break{{end}}">
      <div class="section-card">
        <h2 class="section-title">Service Information</h2>
        <div class="service-content">
          {{if .Service.Venue}}
            <div class="service-item">
              <div class="service-info">
                <h3 class="service-label">Venue</h3>
                <p class="service-value">{{.Service.Venue}}</p>
              </div>
            </div>
          {{end}}
          {{if .Service.Address}}
            <div class="service-item">
              <div class="service-info">
                <h3 class="service-label">Address</h3>
                <p class="service-value">{{.Service.Address}}</p>
              </div>
            </div>
          {{end}}
          {{if .Service.Date}}
            <div class="service-item">
              <div class="service-info">
                <h3 class="service-label">Date</h3>
                <p class="service-value">{{formatLongDate .Service.Date}}</p>
              </div>
            </div>
          {{end}}
          {{if .Service.Time}}
            <div class="service-item">
              <div class="service-info">
                <h3 class="service-label">Time</h3>
                <p class="service-value">{{.Service.Time}}</p>
              </div>
            </div>
          {{end}}
          {{if .Service.VirtualLink}}
            <div class="service-item">
              <div class="service-info">
                <h3 class="service-label">Virtual Attendance</h3>
                <p class="service-value">{{.Service.VirtualLink}}</p>
                {{if .Service.VirtualPlatform}}<p class="service-platform">Platform: {{.Service.VirtualPlatform}}</p>{{end}}
              </div>
            </div>
          {{end}}
        </div>
      </div>
    </div>
  {{end}}

  <div class="footer-section">
    <p class="footer-quote">&quot;Those we love don't go away,</p>
    <p class="footer-quote">they walk beside us every day.&quot;</p>
    <p class="footer-credit">Created with love and remembrance &bull; {{.Year}}</p>
  </div>

</body>
</html>
`
