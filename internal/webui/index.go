package webui

const defaultIndexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>liteplex</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: linear-gradient(145deg,#f7fafc,#e9eef7); color: #1f2937; }
    .wrap { max-width: 900px; margin: 0 auto; padding: 20px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; }
    #log { min-height: 320px; max-height: 60vh; overflow: auto; white-space: pre-wrap; border: 1px solid #d1d5db; border-radius: 8px; padding: 12px; background: #f9fafb; }
    .status { color: #64748b; font-style: italic; }
    .row { display: flex; gap: 8px; margin-top: 10px; }
    input { flex: 1; padding: 10px; border: 1px solid #cbd5e1; border-radius: 8px; }
    button { padding: 10px 16px; border: 0; border-radius: 8px; background: #0f766e; color: #fff; cursor: pointer; }
    button:hover { background: #0d9488; }
    button.stop { background: #b91c1c; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h2>liteplex</h2>
      <div id="log"></div>
      <div class="row">
        <input id="msg" placeholder="Ask anything..." />
        <button id="send">Send</button>
        <button id="stop" class="stop">Stop</button>
      </div>
    </div>
  </div>
  <script>
    const log = document.getElementById('log');
    const msg = document.getElementById('msg');
    const sessionId = 'web-' + Date.now();
    const messages = [];
    let answerEl = null;

    const line = (cls, text) => {
      const el = document.createElement('div');
      if (cls) el.className = cls;
      el.textContent = text;
      log.appendChild(el);
      log.scrollTop = log.scrollHeight;
      return el;
    };

    async function sendMessage() {
      const text = msg.value.trim();
      if (!text) return;
      line('', 'You: ' + text);
      msg.value = '';
      messages.push({ role: 'user', content: text });
      answerEl = null;
      let full = '';

      const resp = await fetch('/api/chat', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ sessionId, messages })
      });
      const reader = resp.body.getReader();
      const decoder = new TextDecoder();
      let buf = '';
      for (;;) {
        const { value, done } = await reader.read();
        if (done) break;
        buf += decoder.decode(value, { stream: true });
        let idx;
        while ((idx = buf.indexOf('\n\n')) >= 0) {
          const frame = buf.slice(0, idx);
          buf = buf.slice(idx + 2);
          if (!frame.startsWith('data: ')) continue;
          const ev = JSON.parse(frame.slice(6));
          if (ev.type === 'status') {
            line('status', '[' + ev.status + ']');
          } else if (ev.type === 'content') {
            if (!answerEl) answerEl = line('', '');
            full += ev.content;
            answerEl.textContent = full;
            log.scrollTop = log.scrollHeight;
          } else if (ev.type === 'sources' && ev.sources) {
            line('status', ev.sources.length + ' sources');
          } else if (ev.type === 'done') {
            messages.push({ role: 'assistant', content: ev.content });
          } else if (ev.type === 'error') {
            line('status', 'error: ' + ev.message);
          }
        }
      }
    }

    document.getElementById('send').addEventListener('click', sendMessage);
    document.getElementById('stop').addEventListener('click', () => {
      fetch('/api/stop', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ sessionId })
      });
    });
    msg.addEventListener('keydown', (e) => { if (e.key === 'Enter') sendMessage(); });
  </script>
</body>
</html>`
