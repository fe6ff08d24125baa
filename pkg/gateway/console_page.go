package gateway

import "net/http"

func (g *Gateway) handleConsolePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(consoleHTML))
}

// consoleHTML is a bare test client: it streams webcam frames and microphone
// audio over /ws and prints whatever the model sends back.
const consoleHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Ada Console</title>
<style>
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #0f0f0f; color: #e0e0e0; height: 100vh; display: flex; flex-direction: column; }
  header { padding: 16px 24px; background: #1a1a1a; border-bottom: 1px solid #333; display: flex; gap: 16px; align-items: center; }
  header h1 { font-size: 18px; font-weight: 600; flex: 1; }
  #status { font-size: 13px; color: #888; }
  main { flex: 1; display: flex; gap: 16px; padding: 16px 24px; min-height: 0; }
  video { width: 480px; border-radius: 8px; background: #000; }
  #log { flex: 1; overflow-y: auto; display: flex; flex-direction: column; gap: 8px; }
  .line { padding: 8px 12px; border-radius: 8px; background: #262626; white-space: pre-wrap; }
  .line.user { color: #93c5fd; }
  .line.error { background: #991b1b; color: #fca5a5; }
  button { padding: 8px 16px; border: none; border-radius: 8px; background: #2563eb; color: #fff; cursor: pointer; }
</style>
</head>
<body>
<header>
  <h1>Ada Console</h1>
  <span id="status">disconnected</span>
  <button id="start">Start</button>
</header>
<main>
  <video id="video" autoplay muted playsinline></video>
  <div id="log"></div>
</main>
<canvas id="canvas" width="640" height="480" hidden></canvas>
<script>
(function() {
  const statusEl = document.getElementById('status');
  const logEl = document.getElementById('log');
  const video = document.getElementById('video');
  const canvas = document.getElementById('canvas');
  let ws = null;

  function line(text, cls) {
    const div = document.createElement('div');
    div.className = 'line ' + (cls || '');
    div.textContent = text;
    logEl.appendChild(div);
    logEl.scrollTop = logEl.scrollHeight;
  }

  function b64(buf) {
    let s = '';
    const bytes = new Uint8Array(buf);
    for (let i = 0; i < bytes.length; i++) s += String.fromCharCode(bytes[i]);
    return btoa(s);
  }

  function send(event, data, mime) {
    if (!ws || ws.readyState !== WebSocket.OPEN) return;
    ws.send(JSON.stringify({ event: event, data: data, mime_type: mime }));
  }

  function startFrames() {
    setInterval(function() {
      canvas.getContext('2d').drawImage(video, 0, 0, canvas.width, canvas.height);
      const url = canvas.toDataURL('image/jpeg', 0.7);
      send('vision_frame', url.slice(url.indexOf(',') + 1), 'image/jpeg');
    }, 1000);
  }

  function startAudio(stream) {
    const ctx = new AudioContext({ sampleRate: 16000 });
    const src = ctx.createMediaStreamSource(stream);
    const proc = ctx.createScriptProcessor(4096, 1, 1);
    proc.onaudioprocess = function(e) {
      const input = e.inputBuffer.getChannelData(0);
      const pcm = new Int16Array(input.length);
      for (let i = 0; i < input.length; i++) {
        const s = Math.max(-1, Math.min(1, input[i]));
        pcm[i] = s < 0 ? s * 0x8000 : s * 0x7fff;
      }
      send('voice_input', b64(pcm.buffer), 'audio/pcm;rate=16000');
    };
    src.connect(proc);
    proc.connect(ctx.destination);
  }

  function connect() {
    const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    ws = new WebSocket(proto + '//' + location.host + '/ws');
    ws.onopen = function() { statusEl.textContent = 'connected'; };
    ws.onclose = function() { statusEl.textContent = 'disconnected'; };
    ws.onmessage = function(e) {
      const msg = JSON.parse(e.data);
      switch (msg.event) {
        case 'session': statusEl.textContent = 'session ' + msg.session_id; break;
        case 'ready': line('model ready'); break;
        case 'error': line(msg.error, 'error'); break;
        case 'ai_message':
          if (msg.input_transcript) line(msg.input_transcript, 'user');
          if (msg.text) line(msg.text);
          if (msg.output_transcript) line(msg.output_transcript);
          break;
      }
    };
  }

  document.getElementById('start').addEventListener('click', async function() {
    const stream = await navigator.mediaDevices.getUserMedia({ video: true, audio: true });
    video.srcObject = stream;
    connect();
    startFrames();
    startAudio(stream);
  });
})();
</script>
</body>
</html>`
