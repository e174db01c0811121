package search

// renderMapPage renders the map page HTML. The page is one rendering
// surface over the search API: it forwards camera movement, keyword and
// filter changes to /search and draws the icon descriptors it gets back.
func renderMapPage() string {
	return `<div class="trusti-page">
<div class="trusti-controls">
  <form id="keyword-form" class="trusti-search-form">
    <input type="text" id="keyword" placeholder="Search here, or enter a zip code">
    <button type="submit">Search</button>
    <button type="button" id="locate" class="btn-secondary">Use My Location</button>
  </form>
  <div class="trusti-filters">
    <button class="filter-btn active" data-filter="all">All</button>
    <button class="filter-btn" data-filter="reviewedOnly">Reviewed</button>
    <button class="filter-btn" data-filter="bookmarkedOnly">Saved</button>
  </div>
</div>
<p id="advisory" class="text-muted" style="display:none;"></p>
<div id="trusti-map" style="height:480px;width:100%;margin:16px 0;border-radius:8px;"></div>
<div id="trusti-list" class="trusti-list"></div>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV/XN/WPeE=" crossorigin=""></script>
<script>
(function() {
  var map = L.map('trusti-map').setView([30.2672, -97.7431], 13);
  L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
    maxZoom: 19,
    attribution: '&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>'
  }).addTo(map);

  var userId = localStorage.getItem('trusti_user') ||
    (localStorage.setItem('trusti_user', 'u-' + Math.random().toString(36).slice(2)),
     localStorage.getItem('trusti_user'));
  var keyword = '';
  var filter = 'all';
  var suppressNext = false;
  var settleTimer = null;
  var markers = [];
  var MAX_KEYWORD_ZOOM = 16;
  var SETTLE_MS = 600;

  function bounds() {
    var b = map.getBounds();
    return {
      min_lat: b.getSouth(), min_lng: b.getWest(),
      max_lat: b.getNorth(), max_lng: b.getEast()
    };
  }

  function iconSVG(icon) {
    var size = icon.shape === 'dot' ? 14 : 28;
    var r = size / 2 - 2;
    var c = size / 2;
    var svg = '<svg width="' + size + '" height="' + size + '" viewBox="0 0 ' + size + ' ' + size + '">';
    if (icon.shape === 'star') {
      svg += '<text x="' + c + '" y="' + (c + 6) + '" text-anchor="middle" font-size="' + size + '" fill="' + icon.fill + '">&#9733;</text>';
    } else if (icon.shape === 'pin') {
      svg += '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="' + icon.fill + '" stroke="' + icon.border + '" stroke-width="2"/>';
      svg += '<circle cx="' + c + '" cy="' + c + '" r="3" fill="#ffffff"/>';
    } else if (icon.shape === 'pie') {
      (icon.segments || []).forEach(function(s) { svg += sector(c, r, s); });
      svg += '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="none" stroke="' + icon.border + '" stroke-width="2"/>';
    } else if (icon.shape === 'ring') {
      svg += '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="' + icon.fill + '"/>';
      (icon.segments || []).forEach(function(s) { svg += arc(c, r, s); });
    } else {
      svg += '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="' + icon.fill + '" stroke="' + icon.border + '" stroke-width="2"/>';
    }
    if (icon.badge) {
      svg += '<circle cx="' + (size - 5) + '" cy="5" r="4" fill="' + icon.badge.color + '" stroke="#ffffff" stroke-width="1"/>';
    }
    return svg + '</svg>';
  }

  function polar(c, r, deg) {
    var rad = (deg - 90) * Math.PI / 180;
    return [c + r * Math.cos(rad), c + r * Math.sin(rad)];
  }

  function sector(c, r, s) {
    if (s.sweep >= 360) {
      return '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="' + s.color + '"/>';
    }
    var a = polar(c, r, s.start), b = polar(c, r, s.start + s.sweep);
    var large = s.sweep > 180 ? 1 : 0;
    return '<path d="M' + c + ',' + c + ' L' + a[0] + ',' + a[1] +
      ' A' + r + ',' + r + ' 0 ' + large + ',1 ' + b[0] + ',' + b[1] + ' Z" fill="' + s.color + '"/>';
  }

  function arc(c, r, s) {
    if (s.sweep >= 360) {
      return '<circle cx="' + c + '" cy="' + c + '" r="' + r + '" fill="none" stroke="' + s.color + '" stroke-width="3"/>';
    }
    var a = polar(c, r, s.start), b = polar(c, r, s.start + s.sweep);
    var large = s.sweep > 180 ? 1 : 0;
    return '<path d="M' + a[0] + ',' + a[1] + ' A' + r + ',' + r + ' 0 ' + large + ',1 ' + b[0] + ',' + b[1] +
      '" fill="none" stroke="' + s.color + '" stroke-width="3"/>';
  }

  function advise(msg) {
    var el = document.getElementById('advisory');
    el.textContent = msg || '';
    el.style.display = msg ? 'block' : 'none';
  }

  function render(snap) {
    markers.forEach(function(m) { map.removeLayer(m); });
    markers = [];
    advise(snap.advisory);

    var list = document.getElementById('trusti-list');
    list.innerHTML = '';
    (snap.places || []).forEach(function(ap, i) {
      var p = ap.place;
      if (p.has_coords) {
        var icon = snap.icons[i];
        var size = icon.shape === 'dot' ? 14 : 28;
        var m = L.marker([p.lat, p.lng], {
          icon: L.divIcon({ html: iconSVG(icon), className: '', iconSize: [size, size] })
        }).addTo(map);
        m.on('click', function() { selectPlace(p.id); });
        markers.push(m);
      }
      var row = document.createElement('div');
      row.className = 'trusti-row';
      row.innerHTML = '<b>' + p.name + '</b> <span class="text-muted">' + (p.address || '') + '</span>';
      row.onclick = function() { selectPlace(p.id); };
      list.appendChild(row);
    });

    if (snap.recenter) {
      suppressNext = true;
      map.setView([snap.recenter.lat, snap.recenter.lng], map.getZoom());
    } else if (snap.request && snap.request.keyword) {
      var pts = [];
      (snap.places || []).forEach(function(ap) {
        if (ap.keyword_matched && ap.place.has_coords) pts.push([ap.place.lat, ap.place.lng]);
      });
      if (pts.length) {
        suppressNext = true;
        map.fitBounds(L.latLngBounds(pts), { maxZoom: MAX_KEYWORD_ZOOM });
      }
    }
  }

  function selectPlace(id) {
    fetch('/search/select', {
      method: 'POST',
      headers: {'Content-Type': 'application/x-www-form-urlencoded', 'Accept': 'application/json'},
      body: 'place_id=' + encodeURIComponent(id)
    });
  }

  function runSearch() {
    var b = bounds();
    var q = '/search?user_id=' + encodeURIComponent(userId) +
      '&keyword=' + encodeURIComponent(keyword) +
      '&filter=' + encodeURIComponent(filter) +
      '&min_lat=' + b.min_lat + '&min_lng=' + b.min_lng +
      '&max_lat=' + b.max_lat + '&max_lng=' + b.max_lng;
    fetch(q, { headers: {'Accept': 'application/json'} })
      .then(function(r) { return r.status === 204 ? null : r.json(); })
      .then(function(snap) { if (snap) render(snap); })
      .catch(function() { advise('Search is unavailable right now.'); });
  }

  // Movement settles 600ms after the last event. A programmatic move
  // consumes the suppress flag instead of searching.
  map.on('moveend zoomend', function() {
    if (settleTimer) clearTimeout(settleTimer);
    settleTimer = setTimeout(function() {
      if (suppressNext) { suppressNext = false; return; }
      runSearch();
    }, SETTLE_MS);
  });

  document.getElementById('keyword-form').addEventListener('submit', function(e) {
    e.preventDefault();
    keyword = document.getElementById('keyword').value.trim();
    runSearch();
  });

  document.querySelectorAll('.filter-btn').forEach(function(btn) {
    btn.addEventListener('click', function() {
      document.querySelectorAll('.filter-btn').forEach(function(b) { b.classList.remove('active'); });
      btn.classList.add('active');
      filter = btn.getAttribute('data-filter');
      runSearch();
    });
  });

  document.getElementById('locate').addEventListener('click', function() {
    if (!navigator.geolocation) {
      advise('Location is not supported by your browser.');
      return;
    }
    navigator.geolocation.getCurrentPosition(function(pos) {
      suppressNext = true;
      map.setView([pos.coords.latitude, pos.coords.longitude], 15);
      runSearch();
    }, function(err) {
      var msgs = {
        1: 'Location permission was denied.',
        2: 'Your location is unavailable right now.',
        3: 'Finding your location took too long.'
      };
      advise(msgs[err.code] || 'Could not get your location.');
    });
  });

  runSearch();
})();
</script>
</div>`
}
