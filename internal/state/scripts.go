package state

// Script expressions issued to the page engine. The core never parses HTML;
// everything it learns about the page comes back through these evaluations
// as strings or JSON payloads.

const (
	scriptReadyState = `document.readyState`

	scriptLocalStorage = `(function() {
	var out = {};
	for (var i = 0; i < localStorage.length; i++) {
		var k = localStorage.key(i);
		out[k] = localStorage.getItem(k);
	}
	return JSON.stringify(out);
})()`

	scriptSessionStorage = `(function() {
	var out = {};
	for (var i = 0; i < sessionStorage.length; i++) {
		var k = sessionStorage.key(i);
		out[k] = sessionStorage.getItem(k);
	}
	return JSON.stringify(out);
})()`

	// scriptFormFields walks every form control and reports a stable
	// selector plus its current state. Selector preference: id, then name
	// scoped to the tag, then a positional fallback counting the element's
	// same-tag siblings, matching what nth-of-type resolves against.
	scriptFormFields = `(function() {
	var fields = [];
	var controls = document.querySelectorAll('input, select, textarea');
	for (var i = 0; i < controls.length; i++) {
		var el = controls[i];
		var sel;
		if (el.id) {
			sel = '#' + el.id;
		} else if (el.name) {
			sel = el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		} else {
			var nth = 1;
			for (var sib = el.previousElementSibling; sib; sib = sib.previousElementSibling) {
				if (sib.tagName === el.tagName) nth++;
			}
			sel = el.tagName.toLowerCase() + ':nth-of-type(' + nth + ')';
		}
		var type = (el.getAttribute('type') || el.tagName.toLowerCase());
		if (type === 'password') continue;
		fields.push({
			selector: sel,
			name: el.name || '',
			id: el.id || '',
			type: type,
			value: el.value || '',
			checked: !!el.checked
		});
	}
	return JSON.stringify(fields);
})()`

	// scriptActiveElement reports a selector for the focused element, or ""
	scriptActiveElement = `(function() {
	var el = document.activeElement;
	if (!el || el === document.body || el === document.documentElement) return '';
	if (el.id) return '#' + el.id;
	if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
	return '';
})()`

	scriptWindowScroll = `JSON.stringify({x: window.scrollX, y: window.scrollY})`
)

// scriptElementScroll reads the scroll offset of one element
const scriptElementScroll = `(function(sel) {
	var el = document.querySelector(sel);
	if (!el) return '';
	return JSON.stringify({x: el.scrollLeft, y: el.scrollTop});
})(%s)`

// scriptRestoreStorage writes entries into local or session storage; the
// first verb is "localStorage" or "sessionStorage", the payload a JSON object
const scriptRestoreStorage = `(function(entries) {
	for (var k in entries) {
		%s.setItem(k, entries[k]);
	}
	return 'true';
})(%s)`

// scriptRestoreField sets one form control's value and checked state and
// fires the events frameworks listen for
const scriptRestoreField = `(function(sel, value, checked) {
	var el = document.querySelector(sel);
	if (!el) return 'false';
	var type = (el.getAttribute('type') || '').toLowerCase();
	if (type === 'checkbox' || type === 'radio') {
		el.checked = checked;
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'true';
})(%s, %s, %v)`

// scriptRestoreScroll scrolls the window or one element
const scriptRestoreWindowScroll = `(function(x, y) { window.scrollTo(x, y); return 'true'; })(%v, %v)`

const scriptRestoreElementScroll = `(function(sel, x, y) {
	var el = document.querySelector(sel);
	if (!el) return 'false';
	el.scrollLeft = x;
	el.scrollTop = y;
	return 'true';
})(%s, %v, %v)`

// scriptSetVariables publishes the record's custom variables on the page
const scriptSetVariables = `(function(vars) { window.__revisitVars = vars; return 'true'; })(%s)`
