package chromerecorder

// pageSetup installs a canvas and three functions on window:
//   __draw(dataURL)  paints an image onto the canvas
//   __start(mime, bitrate, fps) starts a MediaRecorder on captureStream
//   __stop()         resolves to the recording as a base64 string
const pageSetup = `(() => {
  const canvas = document.createElement('canvas');
  canvas.width = %d;
  canvas.height = %d;
  document.body.style.margin = '0';
  document.body.appendChild(canvas);
  const ctx = canvas.getContext('2d');
  ctx.fillStyle = '#fff';
  ctx.fillRect(0, 0, canvas.width, canvas.height);

  let recorder = null;
  const chunks = [];

  window.__draw = (src) => new Promise((resolve, reject) => {
    const img = new Image();
    img.onload = () => { ctx.drawImage(img, 0, 0); resolve(true); };
    img.onerror = () => reject(new Error('image decode failed'));
    img.src = src;
  });

  window.__start = (mime, bitrate, fps) => {
    const stream = canvas.captureStream(fps);
    const opts = { mimeType: mime };
    if (bitrate > 0) opts.videoBitsPerSecond = bitrate;
    recorder = new MediaRecorder(stream, opts);
    recorder.ondataavailable = (e) => { if (e.data.size > 0) chunks.push(e.data); };
    recorder.start(100);
    return true;
  };

  window.__stop = () => new Promise((resolve, reject) => {
    if (!recorder) { reject(new Error('not recording')); return; }
    recorder.onstop = async () => {
      const blob = new Blob(chunks, { type: recorder.mimeType });
      const buf = new Uint8Array(await blob.arrayBuffer());
      let bin = '';
      for (let i = 0; i < buf.length; i += 0x8000) {
        bin += String.fromCharCode.apply(null, buf.subarray(i, i + 0x8000));
      }
      resolve(btoa(bin));
    };
    recorder.stop();
  });

  return true;
})()`

const supportedScript = `(%s).filter((m) => MediaRecorder.isTypeSupported(m))`
