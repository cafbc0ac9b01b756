package testutil

// Selectors used by the site's search UI.
const (
	SearchInputSelector = "input.pc-search-input"
	ResultCardSelector  = "div.pc-card-btn"
)

// DetailURL is a detail page URL as the site produces it after clicking a result card.
const DetailURL = "https://moviebox.ng/movies/inception-2010?id=8906247916759695608&scene=&page_from=search_detail"

// DetailSubjectID is the subject ID carried by DetailURL.
const DetailSubjectID = "8906247916759695608"

// DownloadResponseJSON is a download API response with captions in several languages.
const DownloadResponseJSON = `{
  "code": 0,
  "message": "ok",
  "data": {
    "downloads": [
      {"id": "1001", "url": "https://bcdnw.example/movie-1080.mp4", "resolution": 1080, "size": "2147483648"},
      {"id": "1002", "url": "https://bcdnw.example/movie-720.mp4", "resolution": 720, "size": "1073741824"}
    ],
    "captions": [
      {"id": "2001", "lan": "en", "lanName": "English", "url": "https://cacdn.example/en.srt", "size": "58712", "delay": 0},
      {"id": "2002", "lan": "fr", "lanName": "Français", "url": "https://cacdn.example/fr.srt", "size": "60211", "delay": 0},
      {"id": "2003", "lan": "es", "lanName": "Español", "url": "https://cacdn.example/es.srt", "size": "59001", "delay": 0},
      {"id": "2004", "lan": "en", "lanName": "English (SDH)", "url": "https://cacdn.example/en-sdh.srt", "size": "63020", "delay": 0}
    ],
    "limited": false,
    "limitedCode": "",
    "hasResource": true
  }
}`

// DownloadResponseWithoutCaptionsJSON lacks data.captions entirely.
const DownloadResponseWithoutCaptionsJSON = `{"code":0,"message":"ok","data":{"downloads":[],"hasResource":false}}`

// EmptySearchHTML is the search page the site renders for a title without hits.
const EmptySearchHTML = `<html><head><title>Search Result - MovieBox</title></head>
<body><div class="search-result"><div class="pc-empty">No results found</div></div></body></html>`
