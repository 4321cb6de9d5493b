package constant

// AsciiArtLogo is the application's banner shown in the root help.
const AsciiArtLogo = `
 ___ _                      _  _      _
/ __| |_ _ _ ___ __ _ _ __ | || |_  _| |__
\__ \  _| '_/ -_) _' | '  \| __ | || | '_ \
|___/\__|_| \___\__,_|_|_|_|_||_|\_,_|_.__/`
