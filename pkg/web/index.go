package web

// indexHTML 演示页面，轮询 /rooms/{session} 展示公开状态
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>UNO bot</title>
<style>
  body { font-family: ui-monospace, monospace; max-width: 40rem; margin: 2rem auto; }
  .card { display: inline-block; padding: .3rem .6rem; margin: .1rem; border-radius: .4rem; color: #fff; }
  .red { background: #d32f2f; } .yellow { background: #c9a400; }
  .green { background: #2e7d32; } .blue { background: #1565c0; } .none { background: #555; }
  .active::before { content: "▶ "; }
</style>
</head>
<body>
<h1>UNO bot</h1>
<p>Session key: <input id="session" value="demo"> <button onclick="poll()">watch</button></p>
<div id="board">no data</div>
<script>
let timer;
async function poll() {
  clearInterval(timer);
  const session = document.getElementById('session').value;
  const tick = async () => {
    const res = await fetch('/rooms/' + encodeURIComponent(session));
    const el = document.getElementById('board');
    if (!res.ok) { el.textContent = 'room not found'; return; }
    const s = await res.json();
    let html = '<p>phase: ' + s.phase + '</p>';
    if (s.top_card) {
      html += '<p>top: <span class="card ' + s.top_card.color + '">' + s.top_card.rank + '</span></p>';
    }
    for (const p of s.players || []) {
      const cls = p.id === s.active_player ? 'active' : '';
      html += '<p class="' + cls + '">' + p.id + ': ' + p.cards + ' cards</p>';
    }
    html += '<p>draw pile: ' + s.draw_pile + '</p>';
    if (s.winner) html += '<p>🏆 ' + s.winner + ' wins!</p>';
    el.innerHTML = html;
  };
  await tick();
  timer = setInterval(tick, 2000);
}
</script>
</body>
</html>
`
