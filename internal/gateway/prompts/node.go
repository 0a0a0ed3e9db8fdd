package prompts

// nodeBaseTemplate is the Express base for backend-only projects.
var nodeBaseTemplate = map[string]string{
	"package.json": `{
  "name": "node-app",
  "private": true,
  "version": "0.0.0",
  "type": "module",
  "scripts": {
    "dev": "node --watch index.js",
    "start": "node index.js"
  },
  "dependencies": {
    "express": "^4.21.0"
  }
}`,
	"index.js": `import express from 'express';

const app = express();
const port = process.env.PORT || 3000;

app.use(express.json());

app.get('/', (req, res) => {
  res.json({ message: 'Hello from your Node app' });
});

app.listen(port, () => {
  console.log('Server running on port ' + port);
});`,
}
