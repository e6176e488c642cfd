package server

// indexPage is the single-page query form. It posts to /api/query and
// renders the answer plus the retrieved chunks.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>RAG Demo</title>
<style>
  body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
  textarea { width: 100%; height: 5rem; }
  button { padding: 0.4rem 1.2rem; margin-top: 0.5rem; }
  #answer { white-space: pre-wrap; border: 1px solid #ccc; border-radius: 4px; padding: 1rem; margin-top: 1rem; }
  .source { color: #555; font-size: 0.85rem; border-left: 3px solid #ccc; padding-left: 0.6rem; margin-top: 0.6rem; }
  .error { color: #a00; }
</style>
</head>
<body>
<h1>Retrieval-Augmented Generation</h1>
<form id="f">
  <textarea id="q" placeholder="Ask a question about the indexed documents"></textarea>
  <br><button type="submit">Ask</button>
</form>
<div id="answer" hidden></div>
<div id="sources"></div>
<script>
const form = document.getElementById('f');
const box = document.getElementById('answer');
const sources = document.getElementById('sources');
form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const query = document.getElementById('q').value.trim();
  if (!query) return;
  box.hidden = false;
  box.className = '';
  box.textContent = 'Thinking...';
  sources.innerHTML = '';
  try {
    const res = await fetch('/api/query', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({query})
    });
    const data = await res.json();
    if (!res.ok) {
      box.className = 'error';
      box.textContent = data.error || 'request failed';
      return;
    }
    box.textContent = data.answer;
    for (const s of data.sources || []) {
      const div = document.createElement('div');
      div.className = 'source';
      div.textContent = s.source + ' (score ' + s.score.toFixed(3) + '): ' + s.text.slice(0, 240);
      sources.appendChild(div);
    }
  } catch (err) {
    box.className = 'error';
    box.textContent = String(err);
  }
});
</script>
</body>
</html>
`
